package githubapi

import (
	"context"
	"strings"
)

const (
	pullDetailsPageSizeConstant              = 50
	ownerVariableNameConstant                = "owner"
	repositoryVariableNameConstant           = "name"
	pageSizeVariableNameConstant             = "pageSize"
	cursorVariableNameConstant               = "cursor"
	listPullRequestDetailsOperationConstant  = OperationName("ListOpenPullRequestDetails")
	repositorySlugComponentCountConstant     = 2
	repositorySlugMalformedMessageConstant   = "must use the owner/name form"
	repositorySlugSeparatorGitHubAPIConstant = "/"
)

const listPullRequestDetailsQueryConstant = `query($owner: String!, $name: String!, $pageSize: Int!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: OPEN, first: $pageSize, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        number
        title
        body
        isDraft
        mergeable
        createdAt
        url
        reviewDecision
        headRefName
        baseRefName
        labels(first: 20) { nodes { name } }
        assignees(first: 10) { nodes { login } }
        commits(last: 1) {
          nodes {
            commit { statusCheckRollup { state } }
          }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

// PullRequestDetail carries the review and check state audit reports need
// beyond the REST pull request shape.
type PullRequestDetail struct {
	Number         int
	Title          string
	Body           string
	Draft          bool
	Mergeable      string
	CreatedAt      string
	URL            string
	ReviewDecision string
	ChecksState    string
	HeadBranch     string
	BaseBranch     string
	Labels         []string
	Assignees      []string
}

type pullRequestDetailsResponse struct {
	Repository struct {
		PullRequests struct {
			Nodes []struct {
				Number         int    `json:"number"`
				Title          string `json:"title"`
				Body           string `json:"body"`
				IsDraft        bool   `json:"isDraft"`
				Mergeable      string `json:"mergeable"`
				CreatedAt      string `json:"createdAt"`
				URL            string `json:"url"`
				ReviewDecision string `json:"reviewDecision"`
				HeadRefName    string `json:"headRefName"`
				BaseRefName    string `json:"baseRefName"`
				Labels         struct {
					Nodes []struct {
						Name string `json:"name"`
					} `json:"nodes"`
				} `json:"labels"`
				Assignees struct {
					Nodes []struct {
						Login string `json:"login"`
					} `json:"nodes"`
				} `json:"assignees"`
				Commits struct {
					Nodes []struct {
						Commit struct {
							StatusCheckRollup *struct {
								State string `json:"state"`
							} `json:"statusCheckRollup"`
						} `json:"commit"`
					} `json:"nodes"`
				} `json:"commits"`
			} `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

// ListOpenPullRequestDetails fetches every open pull request with draft flag,
// mergeable state, review decision, and the latest commit's check rollup.
func (client *Client) ListOpenPullRequestDetails(executionContext context.Context, repository string) ([]PullRequestDetail, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	slugComponents := strings.SplitN(trimmedRepository, repositorySlugSeparatorGitHubAPIConstant, repositorySlugComponentCountConstant)
	if len(slugComponents) != repositorySlugComponentCountConstant || len(slugComponents[0]) == 0 || len(slugComponents[1]) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: repositorySlugMalformedMessageConstant}
	}

	collectedDetails := []PullRequestDetail{}
	var cursor any
	for {
		queryVariables := map[string]any{
			ownerVariableNameConstant:      slugComponents[0],
			repositoryVariableNameConstant: slugComponents[1],
			pageSizeVariableNameConstant:   pullDetailsPageSizeConstant,
			cursorVariableNameConstant:     cursor,
		}
		queryResponse := pullRequestDetailsResponse{}
		queryError := client.ExecuteGraphQL(executionContext, listPullRequestDetailsOperationConstant, listPullRequestDetailsQueryConstant, queryVariables, &queryResponse)
		if queryError != nil {
			return nil, queryError
		}

		for _, pullNode := range queryResponse.Repository.PullRequests.Nodes {
			detail := PullRequestDetail{
				Number:         pullNode.Number,
				Title:          pullNode.Title,
				Body:           pullNode.Body,
				Draft:          pullNode.IsDraft,
				Mergeable:      pullNode.Mergeable,
				CreatedAt:      pullNode.CreatedAt,
				URL:            pullNode.URL,
				ReviewDecision: pullNode.ReviewDecision,
				HeadBranch:     pullNode.HeadRefName,
				BaseBranch:     pullNode.BaseRefName,
			}
			for _, labelNode := range pullNode.Labels.Nodes {
				detail.Labels = append(detail.Labels, labelNode.Name)
			}
			for _, assigneeNode := range pullNode.Assignees.Nodes {
				detail.Assignees = append(detail.Assignees, assigneeNode.Login)
			}
			if len(pullNode.Commits.Nodes) > 0 && pullNode.Commits.Nodes[0].Commit.StatusCheckRollup != nil {
				detail.ChecksState = pullNode.Commits.Nodes[0].Commit.StatusCheckRollup.State
			}
			collectedDetails = append(collectedDetails, detail)
		}

		if !queryResponse.Repository.PullRequests.PageInfo.HasNextPage {
			return collectedDetails, nil
		}
		cursor = queryResponse.Repository.PullRequests.PageInfo.EndCursor
	}
}
