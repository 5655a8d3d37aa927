package azdo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultServicesBaseURLConstant        = "https://dev.azure.com"
	defaultReleaseServicesBaseURLConstant = "https://vsrm.dev.azure.com"
	apiVersionConstant                    = "7.1"
	apiVersionQueryParameterConstant      = "api-version"
	expandQueryParameterConstant          = "$expand"
	environmentsExpandValueConstant       = "environments"
	includeAllPropertiesParameterConstant = "includeAllProperties"
	includeAllPropertiesValueConstant     = "true"
	buildDefinitionsPathTemplateConstant  = "%s/%s/%s/_apis/build/definitions"
	releaseDefinitionsPathTemplate        = "%s/%s/%s/_apis/release/definitions"
	teamIterationsPathTemplateConstant    = "%s/%s/%s/_apis/work/teamsettings/iterations"
	agentPoolsPathTemplateConstant        = "%s/%s/_apis/distributedtask/pools"
	wiqlPathTemplateConstant              = "%s/%s/%s/_apis/wit/wiql"
	workItemPathTemplateConstant          = "%s/%s/_apis/wit/workitems/%d"
	authorizationHeaderNameConstant       = "Authorization"
	basicAuthorizationTemplateConstant    = "Basic %s"
	acceptHeaderNameConstant              = "Accept"
	acceptHeaderValueConstant             = "application/json"
	contentTypeHeaderNameConstant         = "Content-Type"
	jsonContentTypeConstant               = "application/json"
	jsonPatchContentTypeConstant          = "application/json-patch+json"
	iterationPathFieldReferenceConstant   = "/fields/System.IterationPath"
	jsonPatchAddOperationConstant         = "add"
	organizationFieldNameConstant         = "organization"
	personalAccessTokenFieldNameConstant  = "personal access token"
	projectFieldNameConstant              = "project"
	wiqlQueryFieldNameConstant            = "query"
	workItemIdentifierFieldNameConstant   = "work item identifier"
	requiredValueMessageConstant          = "value required"
	positiveValueMessageConstant          = "positive value required"
	operationErrorMessageTemplate         = "%s operation failed"
	operationErrorWithCauseTemplate       = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant  = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant     = "%s: %s"
	unexpectedStatusTemplateConstant      = "unexpected status %d: %s"
	responseExcerptLimitConstant          = 512

	listBuildDefinitionsOperationName   = OperationName("ListBuildDefinitions")
	listReleaseDefinitionsOperationName = OperationName("ListReleaseDefinitions")
	listTeamIterationsOperationName     = OperationName("ListTeamIterations")
	listAgentPoolsOperationNameConstant = OperationName("ListAgentPools")
	queryWorkItemsOperationNameConstant = OperationName("QueryWorkItemIdentifiers")
	updateWorkItemOperationNameConstant = OperationName("UpdateWorkItemIterationPath")
)

// OperationName describes a named Azure DevOps REST workflow supported by the client.
type OperationName string

// HTTPDoer is the minimal interface required from *http.Client.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps request execution issues for Azure DevOps operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplate, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplate, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// RequestFailureError captures a non-2xx response with a body excerpt.
type RequestFailureError struct {
	StatusCode      int
	ResponseExcerpt string
}

// Error describes the failed request.
func (failureError RequestFailureError) Error() string {
	return fmt.Sprintf(unexpectedStatusTemplateConstant, failureError.StatusCode, failureError.ResponseExcerpt)
}

// ClientOptions configures a Client instance.
type ClientOptions struct {
	OrganizationName       string
	PersonalAccessToken    string
	HTTPClient             HTTPDoer
	ServicesBaseURL        string
	ReleaseServicesBaseURL string
}

// Client issues authenticated requests against the Azure DevOps REST API.
type Client struct {
	httpClient             HTTPDoer
	organizationName       string
	authorizationHeader    string
	servicesBaseURL        string
	releaseServicesBaseURL string
}

// NewClient validates the options and constructs a Client. The authorization
// header is built once and reused read-only across sequential calls.
func NewClient(options ClientOptions) (*Client, error) {
	trimmedOrganizationName := strings.TrimSpace(options.OrganizationName)
	if len(trimmedOrganizationName) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedPersonalAccessToken := strings.TrimSpace(options.PersonalAccessToken)
	if len(trimmedPersonalAccessToken) == 0 {
		return nil, InvalidInputError{FieldName: personalAccessTokenFieldNameConstant, Message: requiredValueMessageConstant}
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	servicesBaseURL := strings.TrimSuffix(options.ServicesBaseURL, "/")
	if len(servicesBaseURL) == 0 {
		servicesBaseURL = defaultServicesBaseURLConstant
	}

	releaseServicesBaseURL := strings.TrimSuffix(options.ReleaseServicesBaseURL, "/")
	if len(releaseServicesBaseURL) == 0 {
		releaseServicesBaseURL = defaultReleaseServicesBaseURLConstant
	}

	client := &Client{
		httpClient:             httpClient,
		organizationName:       trimmedOrganizationName,
		authorizationHeader:    buildBasicAuthorizationHeader(trimmedPersonalAccessToken),
		servicesBaseURL:        servicesBaseURL,
		releaseServicesBaseURL: releaseServicesBaseURL,
	}

	return client, nil
}

// buildBasicAuthorizationHeader encodes the token as an HTTP basic credential
// with an empty username, the scheme Azure DevOps expects for PATs.
func buildBasicAuthorizationHeader(personalAccessToken string) string {
	encodedCredentials := base64.StdEncoding.EncodeToString([]byte(":" + personalAccessToken))
	return fmt.Sprintf(basicAuthorizationTemplateConstant, encodedCredentials)
}

// ListBuildDefinitions fetches every build pipeline definition for the project.
func (client *Client) ListBuildDefinitions(executionContext context.Context, projectName string) ([]BuildDefinition, error) {
	trimmedProjectName := strings.TrimSpace(projectName)
	if len(trimmedProjectName) == 0 {
		return nil, InvalidInputError{FieldName: projectFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestURL := fmt.Sprintf(buildDefinitionsPathTemplateConstant, client.servicesBaseURL, url.PathEscape(client.organizationName), url.PathEscape(trimmedProjectName))
	queryParameters := url.Values{}
	queryParameters.Set(includeAllPropertiesParameterConstant, includeAllPropertiesValueConstant)
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	var envelope buildDefinitionListEnvelope
	if requestError := client.executeJSONRequest(executionContext, listBuildDefinitionsOperationName, http.MethodGet, requestURL, queryParameters, nil, "", &envelope); requestError != nil {
		return nil, requestError
	}

	return envelope.Value, nil
}

// ListReleaseDefinitions fetches every release pipeline definition for the
// project with its environments expanded.
func (client *Client) ListReleaseDefinitions(executionContext context.Context, projectName string) ([]ReleaseDefinition, error) {
	trimmedProjectName := strings.TrimSpace(projectName)
	if len(trimmedProjectName) == 0 {
		return nil, InvalidInputError{FieldName: projectFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestURL := fmt.Sprintf(releaseDefinitionsPathTemplate, client.releaseServicesBaseURL, url.PathEscape(client.organizationName), url.PathEscape(trimmedProjectName))
	queryParameters := url.Values{}
	queryParameters.Set(expandQueryParameterConstant, environmentsExpandValueConstant)
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	var envelope releaseDefinitionListEnvelope
	if requestError := client.executeJSONRequest(executionContext, listReleaseDefinitionsOperationName, http.MethodGet, requestURL, queryParameters, nil, "", &envelope); requestError != nil {
		return nil, requestError
	}

	return envelope.Value, nil
}

// ListTeamIterations fetches the project team's iteration schedule.
func (client *Client) ListTeamIterations(executionContext context.Context, projectName string) ([]TeamIteration, error) {
	trimmedProjectName := strings.TrimSpace(projectName)
	if len(trimmedProjectName) == 0 {
		return nil, InvalidInputError{FieldName: projectFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestURL := fmt.Sprintf(teamIterationsPathTemplateConstant, client.servicesBaseURL, url.PathEscape(client.organizationName), url.PathEscape(trimmedProjectName))
	queryParameters := url.Values{}
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	var envelope teamIterationListEnvelope
	if requestError := client.executeJSONRequest(executionContext, listTeamIterationsOperationName, http.MethodGet, requestURL, queryParameters, nil, "", &envelope); requestError != nil {
		return nil, requestError
	}

	return envelope.Value, nil
}

// ListAgentPools fetches the organization's agent pools.
func (client *Client) ListAgentPools(executionContext context.Context) ([]AgentPool, error) {
	requestURL := fmt.Sprintf(agentPoolsPathTemplateConstant, client.servicesBaseURL, url.PathEscape(client.organizationName))
	queryParameters := url.Values{}
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	var envelope agentPoolListEnvelope
	if requestError := client.executeJSONRequest(executionContext, listAgentPoolsOperationNameConstant, http.MethodGet, requestURL, queryParameters, nil, "", &envelope); requestError != nil {
		return nil, requestError
	}

	return envelope.Value, nil
}

// QueryWorkItemIdentifiers executes a WIQL query and returns the flat work
// item identifier list.
func (client *Client) QueryWorkItemIdentifiers(executionContext context.Context, projectName string, wiqlQuery string) ([]int, error) {
	trimmedProjectName := strings.TrimSpace(projectName)
	if len(trimmedProjectName) == 0 {
		return nil, InvalidInputError{FieldName: projectFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedWiqlQuery := strings.TrimSpace(wiqlQuery)
	if len(trimmedWiqlQuery) == 0 {
		return nil, InvalidInputError{FieldName: wiqlQueryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestURL := fmt.Sprintf(wiqlPathTemplateConstant, client.servicesBaseURL, url.PathEscape(client.organizationName), url.PathEscape(trimmedProjectName))
	queryParameters := url.Values{}
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	requestPayload, encodingError := json.Marshal(wiqlRequest{Query: trimmedWiqlQuery})
	if encodingError != nil {
		return nil, OperationError{Operation: queryWorkItemsOperationNameConstant, Cause: fmt.Errorf(payloadEncodingErrorTemplateConstant, queryWorkItemsOperationNameConstant, encodingError)}
	}

	var envelope wiqlResponseEnvelope
	if requestError := client.executeJSONRequest(executionContext, queryWorkItemsOperationNameConstant, http.MethodPost, requestURL, queryParameters, requestPayload, jsonContentTypeConstant, &envelope); requestError != nil {
		return nil, requestError
	}

	workItemIdentifiers := make([]int, 0, len(envelope.WorkItems))
	for _, workItemReference := range envelope.WorkItems {
		workItemIdentifiers = append(workItemIdentifiers, workItemReference.ID)
	}

	return workItemIdentifiers, nil
}

// UpdateWorkItemIterationPath patches the work item's iteration path field.
func (client *Client) UpdateWorkItemIterationPath(executionContext context.Context, workItemIdentifier int, destinationIterationPath string) error {
	if workItemIdentifier <= 0 {
		return InvalidInputError{FieldName: workItemIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}

	trimmedDestinationPath := strings.TrimSpace(destinationIterationPath)
	if len(trimmedDestinationPath) == 0 {
		return InvalidInputError{FieldName: iterationPathFieldReferenceConstant, Message: requiredValueMessageConstant}
	}

	requestURL := fmt.Sprintf(workItemPathTemplateConstant, client.servicesBaseURL, url.PathEscape(client.organizationName), workItemIdentifier)
	queryParameters := url.Values{}
	queryParameters.Set(apiVersionQueryParameterConstant, apiVersionConstant)

	patchOperations := []jsonPatchOperation{
		{
			Operation: jsonPatchAddOperationConstant,
			Path:      iterationPathFieldReferenceConstant,
			Value:     trimmedDestinationPath,
		},
	}

	requestPayload, encodingError := json.Marshal(patchOperations)
	if encodingError != nil {
		return OperationError{Operation: updateWorkItemOperationNameConstant, Cause: fmt.Errorf(payloadEncodingErrorTemplateConstant, updateWorkItemOperationNameConstant, encodingError)}
	}

	return client.executeJSONRequest(executionContext, updateWorkItemOperationNameConstant, http.MethodPatch, requestURL, queryParameters, requestPayload, jsonPatchContentTypeConstant, nil)
}

// executeJSONRequest performs a single request, checks the status, and decodes
// the JSON response into responseTarget when one is supplied.
func (client *Client) executeJSONRequest(executionContext context.Context, operation OperationName, httpMethod string, requestURL string, queryParameters url.Values, requestPayload []byte, requestContentType string, responseTarget any) error {
	fullRequestURL := requestURL
	if len(queryParameters) > 0 {
		fullRequestURL = requestURL + "?" + queryParameters.Encode()
	}

	var requestBody io.Reader
	if requestPayload != nil {
		requestBody = bytes.NewReader(requestPayload)
	}

	httpRequest, requestCreationError := http.NewRequestWithContext(executionContext, httpMethod, fullRequestURL, requestBody)
	if requestCreationError != nil {
		return OperationError{Operation: operation, Cause: requestCreationError}
	}

	httpRequest.Header.Set(authorizationHeaderNameConstant, client.authorizationHeader)
	httpRequest.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	if len(requestContentType) > 0 {
		httpRequest.Header.Set(contentTypeHeaderNameConstant, requestContentType)
	}

	httpResponse, executionError := client.httpClient.Do(httpRequest)
	if executionError != nil {
		return OperationError{Operation: operation, Cause: executionError}
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return OperationError{Operation: operation, Cause: RequestFailureError{
			StatusCode:      httpResponse.StatusCode,
			ResponseExcerpt: readResponseExcerpt(httpResponse.Body),
		}}
	}

	if responseTarget == nil {
		return nil
	}

	decodingError := json.NewDecoder(httpResponse.Body).Decode(responseTarget)
	if decodingError != nil {
		return OperationError{Operation: operation, Cause: fmt.Errorf(responseDecodingErrorTemplateConstant, operation, decodingError)}
	}

	return nil
}

func readResponseExcerpt(responseBody io.Reader) string {
	excerptBytes, readError := io.ReadAll(io.LimitReader(responseBody, responseExcerptLimitConstant))
	if readError != nil {
		return ""
	}
	return strings.TrimSpace(string(excerptBytes))
}
