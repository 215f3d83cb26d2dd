package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillhub/pkg/registry"
	"github.com/jingkaihe/skillhub/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg, err := registry.New(store.NewMemoryStore())
	require.NoError(t, err)

	server, err := NewServer(reg, &ServerConfig{Host: "localhost", Port: 8080})
	require.NoError(t, err)
	return server
}

func doRequest(t *testing.T, server *Server, method, path, identity, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if identity != "" {
		req.Header.Set(IdentityHeader, identity)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func skillBody(name, body string) string {
	return fmt.Sprintf("---\nname: %s\ndescription: Test skill\n---\n\n%s\n", name, body)
}

func publishSkill(t *testing.T, server *Server, namespace, name, version string) {
	t.Helper()
	rec := doRequest(t, server, "PUT",
		fmt.Sprintf("/v1/skills/%s/%s/versions/%s", namespace, name, version),
		namespace, skillBody(name, "body of "+version))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestServerConfigValidate(t *testing.T) {
	assert.NoError(t, (&ServerConfig{Host: "localhost", Port: 8080}).Validate())
	assert.Error(t, (&ServerConfig{Host: "", Port: 8080}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 0}).Validate())
	assert.Error(t, (&ServerConfig{Host: "localhost", Port: 70000}).Validate())
}

func TestPublishEndpoint(t *testing.T) {
	server := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		rec := doRequest(t, server, "PUT", "/v1/skills/acme/deploy/versions/1.0.0",
			"acme", skillBody("deploy", "run"))
		require.Equal(t, http.StatusCreated, rec.Code)

		var result registry.PublishResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "1.0.0", result.Version)
		assert.Regexp(t, `^sha256:`, result.Checksum)
	})

	t.Run("conflict on republish", func(t *testing.T) {
		rec := doRequest(t, server, "PUT", "/v1/skills/acme/deploy/versions/1.0.0",
			"acme", skillBody("deploy", "other"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("forbidden for wrong identity", func(t *testing.T) {
		rec := doRequest(t, server, "PUT", "/v1/skills/acme/deploy/versions/2.0.0",
			"mallory", skillBody("deploy", "stolen"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bad frontmatter", func(t *testing.T) {
		rec := doRequest(t, server, "PUT", "/v1/skills/acme/deploy/versions/2.0.0",
			"acme", "# not a skill\n")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_input", resp["error"])
	})
}

func TestContentEndpoints(t *testing.T) {
	server := newTestServer(t)
	publishSkill(t, server, "acme", "deploy", "1.0.0")
	publishSkill(t, server, "acme", "deploy", "1.0.1")
	publishSkill(t, server, "acme", "deploy", "2.0.0-beta.1")

	t.Run("get specific version", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/deploy/versions/1.0.0", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "body of 1.0.0")
		assert.NotEmpty(t, rec.Header().Get("X-Skillhub-Skill-Id"))
		assert.NotEmpty(t, rec.Header().Get("X-Skillhub-Namespace-Id"))
	})

	t.Run("latest prefers stable", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/deploy/latest", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1.0.1", rec.Header().Get("X-Skillhub-Version"))
		assert.Contains(t, rec.Body.String(), "body of 1.0.1")
	})

	t.Run("missing version", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/deploy/versions/9.9.9", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing skill", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/ghost/latest", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metadata", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/deploy", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var meta registry.SkillMetadata
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
		require.NotNil(t, meta.Latest)
		assert.Equal(t, "1.0.1", *meta.Latest)
		assert.Len(t, meta.Versions, 3)
		assert.Contains(t, rec.Body.String(), `"latest":"1.0.1"`)
	})

	t.Run("list versions", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills/acme/deploy/versions", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Versions []string `json:"versions"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"2.0.0-beta.1", "1.0.1", "1.0.0"}, resp.Versions)
	})
}

func TestListEndpoints(t *testing.T) {
	server := newTestServer(t)
	publishSkill(t, server, "acme", "deploy", "1.0.0")
	publishSkill(t, server, "acme", "code-review", "0.1.0")
	publishSkill(t, server, "zeta", "deploy", "1.0.0")

	t.Run("namespace skills", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/namespaces/acme/skills", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Skills []string `json:"skills"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"code-review", "deploy"}, resp.Skills)
	})

	t.Run("all skills", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/skills", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Skills []registry.SkillRef `json:"skills"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Skills, 3)
	})
}

func TestProfileEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("missing profile", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/v1/namespaces/acme/profile", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update requires matching identity", func(t *testing.T) {
		rec := doRequest(t, server, "PATCH", "/v1/namespaces/acme/profile",
			"mallory", `{"displayName":"Mallory"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("create and read back", func(t *testing.T) {
		rec := doRequest(t, server, "PATCH", "/v1/namespaces/acme/profile",
			"acme", `{"displayName":"ACME Inc","bio":"We ship skills"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, server, "GET", "/v1/namespaces/acme/profile", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var profile registry.UserProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, "ACME Inc", profile.DisplayName)
		assert.NotEmpty(t, profile.ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, server, "PATCH", "/v1/namespaces/acme/profile", "acme", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndVersion(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, "GET", "/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}
