// Package board models the ProjectV2 board the workflow commands manage.
//
// It carries the typed status, priority, and size vocabularies with their
// keyword parsing, derives hour estimates from size, and runs the board
// GraphQL operations: item scans, adding issues, field mutations, and the
// discovery queries the setup wizard uses to map boards and fields.
package board
