package auditor

import (
	"regexp"
	"sort"
	"strings"
)

// Recognized source file extensions for filename scanning. The list is fixed;
// widening it is a code change, not configuration.
var recognizedFileExtensions = []string{
	".go", ".sh", ".md", ".yaml", ".yml", ".json", ".txt", ".py", ".js", ".ts", ".sql", ".proto",
}

var fileMentionPattern = regexp.MustCompile(`[A-Za-z0-9_./-]+\.[A-Za-z0-9]+`)

// Cross-reference patterns cover #123 shorthand, spelled-out issue/PR
// references, and GitHub issue URLs.
var crossReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`(?i)issue\s+#?(\d+)`),
	regexp.MustCompile(`(?i)(?:PR|pull request)\s+#?(\d+)`),
	regexp.MustCompile(`github\.com/[A-Za-z0-9._-]+/[A-Za-z0-9._-]+/(?:issues|pull)/(\d+)`),
}

// ScanFileMentions extracts filename-like tokens whose extension matches the
// recognized list. Results are deduplicated and sorted.
func ScanFileMentions(text string) []string {
	candidateTokens := fileMentionPattern.FindAllString(text, -1)
	seenMentions := map[string]bool{}
	fileMentions := []string{}
	for _, candidateToken := range candidateTokens {
		trimmedToken := strings.Trim(candidateToken, "./")
		if len(trimmedToken) == 0 || seenMentions[trimmedToken] {
			continue
		}
		if !hasRecognizedExtension(trimmedToken) {
			continue
		}
		seenMentions[trimmedToken] = true
		fileMentions = append(fileMentions, trimmedToken)
	}
	sort.Strings(fileMentions)
	return fileMentions
}

// ScanCrossReferences extracts referenced issue/PR numbers as "#N" tokens.
// Results are deduplicated and sorted numerically via the string form.
func ScanCrossReferences(text string) []string {
	seenReferences := map[string]bool{}
	crossReferences := []string{}
	for _, referencePattern := range crossReferencePatterns {
		for _, patternMatch := range referencePattern.FindAllStringSubmatch(text, -1) {
			if len(patternMatch) < 2 {
				continue
			}
			referenceToken := "#" + patternMatch[1]
			if seenReferences[referenceToken] {
				continue
			}
			seenReferences[referenceToken] = true
			crossReferences = append(crossReferences, referenceToken)
		}
	}
	sort.Slice(crossReferences, func(firstIndex, secondIndex int) bool {
		if len(crossReferences[firstIndex]) != len(crossReferences[secondIndex]) {
			return len(crossReferences[firstIndex]) < len(crossReferences[secondIndex])
		}
		return crossReferences[firstIndex] < crossReferences[secondIndex]
	})
	return crossReferences
}

func hasRecognizedExtension(candidateToken string) bool {
	loweredToken := strings.ToLower(candidateToken)
	for _, recognizedExtension := range recognizedFileExtensions {
		if strings.HasSuffix(loweredToken, recognizedExtension) && len(loweredToken) > len(recognizedExtension) {
			return true
		}
	}
	return false
}
