package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shulehub/shule/core/user"
	testutil "github.com/shulehub/shule/tests"
)

func Test_assistantApi_ask(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Photosynthesis is..."}]}}]}`))
	}))
	defer upstream.Close()

	app := setup(t, upstream.URL)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	body := marchallObj(t, map[string]string{"prompt": "What is photosynthesis?"})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/assistant/ask", body: body,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "prompt required", method: http.MethodPost, path: "/v1/assistant/ask",
			token: getToken(t, student), body: marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"prompt": "this field is required"}),
		},
		{
			name: "ask", method: http.MethodPost, path: "/v1/assistant/ask", token: getToken(t, student), body: body,
			wantData: marchallObj(t, map[string]string{"answer": "Photosynthesis is..."}),
		},
	}
	runTests(t, app, tests)
}

func Test_assistantApi_askUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	app := setup(t, upstream.URL)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent)

	// upstream failures are reported in-band, not as server errors
	runTests(t, app, []httpTest{
		{
			name: "bad status reported in body", method: http.MethodPost, path: "/v1/assistant/ask",
			token: getToken(t, student), body: marchallObj(t, map[string]string{"prompt": "hi"}),
			wantData: marchallObj(t, map[string]string{"error": "The assistant rejected the request. Please try again later."}),
		},
	})
}
