package githubapi

import "context"

const viewerLoginOperationNameConstant = OperationName("ViewerLogin")

const viewerLoginQueryConstant = `query {
  viewer {
    login
  }
}`

type viewerLoginResponse struct {
	Viewer struct {
		Login string `json:"login"`
	} `json:"viewer"`
}

// ViewerLogin returns the login of the authenticated user, the cheapest way
// to prove the configured token works.
func (client *Client) ViewerLogin(executionContext context.Context) (string, error) {
	response := viewerLoginResponse{}
	if queryError := client.ExecuteGraphQL(executionContext, viewerLoginOperationNameConstant, viewerLoginQueryConstant, nil, &response); queryError != nil {
		return "", queryError
	}
	return response.Viewer.Login, nil
}
