package azdo_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/azdo_scripts/internal/azdo"
)

const (
	testOrganizationNameConstant    = "example-organization"
	testProjectNameConstant         = "example-project"
	testPersonalAccessTokenConstant = "example-token"
	testSprintPathConstant          = "Example\\Sprint1"
	testWiqlQueryConstant           = "Select [System.Id] From WorkItems"
	testAPIVersionConstant          = "7.1"
)

func expectedAuthorizationHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+testPersonalAccessTokenConstant))
}

func newClientForTest(testInstance *testing.T, server *httptest.Server) *azdo.Client {
	client, creationError := azdo.NewClient(azdo.ClientOptions{
		OrganizationName:       testOrganizationNameConstant,
		PersonalAccessToken:    testPersonalAccessTokenConstant,
		HTTPClient:             server.Client(),
		ServicesBaseURL:        server.URL,
		ReleaseServicesBaseURL: server.URL,
	})
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidation(testInstance *testing.T) {
	testCases := []struct {
		name    string
		options azdo.ClientOptions
	}{
		{name: "missing_organization", options: azdo.ClientOptions{PersonalAccessToken: testPersonalAccessTokenConstant}},
		{name: "missing_token", options: azdo.ClientOptions{OrganizationName: testOrganizationNameConstant}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := azdo.NewClient(testCase.options)
			require.Error(testInstance, creationError)
			require.Nil(testInstance, client)

			var invalidInputError azdo.InvalidInputError
			require.ErrorAs(testInstance, creationError, &invalidInputError)
		})
	}
}

func TestListBuildDefinitions(testInstance *testing.T) {
	var observedRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedRequest = request.Clone(context.Background())
		fmt.Fprint(responseWriter, `{"count":2,"value":[{"id":1,"name":"service-build","queue":{"pool":{"name":"Default"}}},{"id":2,"name":"service-nightly"}]}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	buildDefinitions, listError := client.ListBuildDefinitions(context.Background(), testProjectNameConstant)
	require.NoError(testInstance, listError)

	require.Len(testInstance, buildDefinitions, 2)
	require.Equal(testInstance, "service-build", buildDefinitions[0].Name)
	require.Equal(testInstance, "Default", buildDefinitions[0].Queue.Pool.Name)
	require.Nil(testInstance, buildDefinitions[1].Queue)

	require.NotNil(testInstance, observedRequest)
	require.Equal(testInstance, http.MethodGet, observedRequest.Method)
	require.Equal(testInstance, fmt.Sprintf("/%s/%s/_apis/build/definitions", testOrganizationNameConstant, testProjectNameConstant), observedRequest.URL.Path)
	require.Equal(testInstance, testAPIVersionConstant, observedRequest.URL.Query().Get("api-version"))
	require.Equal(testInstance, "true", observedRequest.URL.Query().Get("includeAllProperties"))
	require.Equal(testInstance, expectedAuthorizationHeader(), observedRequest.Header.Get("Authorization"))
}

func TestListReleaseDefinitionsExpandsEnvironments(testInstance *testing.T) {
	var observedRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedRequest = request.Clone(context.Background())
		fmt.Fprint(responseWriter, `{"count":1,"value":[{"id":5,"name":"service-release","environments":[{"name":"Staging","deployPhases":[{"phaseType":"agentBasedDeployment","deploymentInput":{"pool":{"name":"Default"}}}]}]}]}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	releaseDefinitions, listError := client.ListReleaseDefinitions(context.Background(), testProjectNameConstant)
	require.NoError(testInstance, listError)

	require.Len(testInstance, releaseDefinitions, 1)
	require.Len(testInstance, releaseDefinitions[0].Environments, 1)
	require.Equal(testInstance, azdo.DeployPhaseTypeAgentBased, releaseDefinitions[0].Environments[0].DeployPhases[0].PhaseType)
	require.Equal(testInstance, "Default", releaseDefinitions[0].Environments[0].DeployPhases[0].DeploymentInput.Pool.Name)

	require.NotNil(testInstance, observedRequest)
	require.Equal(testInstance, fmt.Sprintf("/%s/%s/_apis/release/definitions", testOrganizationNameConstant, testProjectNameConstant), observedRequest.URL.Path)
	require.Equal(testInstance, "environments", observedRequest.URL.Query().Get("$expand"))
}

func TestListTeamIterations(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, fmt.Sprintf("/%s/%s/_apis/work/teamsettings/iterations", testOrganizationNameConstant, testProjectNameConstant), request.URL.Path)
		fmt.Fprint(responseWriter, `{"count":1,"value":[{"id":"abc","name":"Sprint1","path":"Example\\Sprint1"}]}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	teamIterations, listError := client.ListTeamIterations(context.Background(), testProjectNameConstant)
	require.NoError(testInstance, listError)
	require.Len(testInstance, teamIterations, 1)
	require.Equal(testInstance, "Sprint1", teamIterations[0].Name)
	require.Equal(testInstance, testSprintPathConstant, teamIterations[0].Path)
}

func TestListAgentPools(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, fmt.Sprintf("/%s/_apis/distributedtask/pools", testOrganizationNameConstant), request.URL.Path)
		fmt.Fprint(responseWriter, `{"count":1,"value":[{"id":1,"name":"Azure Pipelines","size":10,"isHosted":true}]}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	agentPools, listError := client.ListAgentPools(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, agentPools, 1)
	require.True(testInstance, agentPools[0].IsHosted)
}

func TestQueryWorkItemIdentifiers(testInstance *testing.T) {
	var observedPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, http.MethodPost, request.Method)
		require.Equal(testInstance, "application/json", request.Header.Get("Content-Type"))
		require.NoError(testInstance, json.NewDecoder(request.Body).Decode(&observedPayload))
		fmt.Fprint(responseWriter, `{"queryType":"flat","workItems":[{"id":1},{"id":2},{"id":3}]}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	workItemIdentifiers, queryError := client.QueryWorkItemIdentifiers(context.Background(), testProjectNameConstant, testWiqlQueryConstant)
	require.NoError(testInstance, queryError)
	require.Equal(testInstance, []int{1, 2, 3}, workItemIdentifiers)
	require.Equal(testInstance, testWiqlQueryConstant, observedPayload["query"])
}

func TestUpdateWorkItemIterationPath(testInstance *testing.T) {
	var observedRequest *http.Request
	var observedOperations []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedRequest = request.Clone(context.Background())
		require.NoError(testInstance, json.NewDecoder(request.Body).Decode(&observedOperations))
		fmt.Fprint(responseWriter, `{"id":7}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	updateError := client.UpdateWorkItemIterationPath(context.Background(), 7, testSprintPathConstant)
	require.NoError(testInstance, updateError)

	require.NotNil(testInstance, observedRequest)
	require.Equal(testInstance, http.MethodPatch, observedRequest.Method)
	require.Equal(testInstance, fmt.Sprintf("/%s/_apis/wit/workitems/7", testOrganizationNameConstant), observedRequest.URL.Path)
	require.Equal(testInstance, "application/json-patch+json", observedRequest.Header.Get("Content-Type"))

	require.Len(testInstance, observedOperations, 1)
	require.Equal(testInstance, "add", observedOperations[0]["op"])
	require.Equal(testInstance, "/fields/System.IterationPath", observedOperations[0]["path"])
	require.Equal(testInstance, testSprintPathConstant, observedOperations[0]["value"])
}

func TestClientSurfacesRequestFailures(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(responseWriter, `{"message":"access denied"}`)
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)
	_, listError := client.ListBuildDefinitions(context.Background(), testProjectNameConstant)
	require.Error(testInstance, listError)

	var operationError azdo.OperationError
	require.ErrorAs(testInstance, listError, &operationError)
	require.Equal(testInstance, azdo.OperationName("ListBuildDefinitions"), operationError.Operation)

	var requestFailureError azdo.RequestFailureError
	require.ErrorAs(testInstance, listError, &requestFailureError)
	require.Equal(testInstance, http.StatusUnauthorized, requestFailureError.StatusCode)
	require.Contains(testInstance, requestFailureError.ResponseExcerpt, "access denied")
}

func TestClientValidatesOperationInputs(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		testInstance.Fatal("no request expected")
	}))
	defer server.Close()

	client := newClientForTest(testInstance, server)

	_, buildListError := client.ListBuildDefinitions(context.Background(), " ")
	var invalidInputError azdo.InvalidInputError
	require.ErrorAs(testInstance, buildListError, &invalidInputError)

	_, queryError := client.QueryWorkItemIdentifiers(context.Background(), testProjectNameConstant, " ")
	require.ErrorAs(testInstance, queryError, &invalidInputError)

	updateError := client.UpdateWorkItemIterationPath(context.Background(), 0, testSprintPathConstant)
	require.ErrorAs(testInstance, updateError, &invalidInputError)
}
