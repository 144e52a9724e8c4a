package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Document(t *testing.T) {
	doc, err := New(Options{HTTPPort: "8080"})
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", doc.OpenAPI)
	assert.Equal(t, "User Management System API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.Len(t, doc.Tags, 4)
	assert.Equal(t, "bearer", doc.Components.SecuritySchemes["bearerAuth"].Scheme)

	for _, path := range []string{
		"/api/auth/register", "/api/auth/login", "/api/auth/logout",
		"/api/users/me", "/api/profile", "/api/admin/users",
	} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.NotNil(t, doc.Paths["/api/profile"].Get)
	assert.NotNil(t, doc.Paths["/api/profile"].Put)
}

func TestNew_Register(t *testing.T) {
	doc, err := New(Options{})
	require.NoError(t, err)

	op := doc.Paths["/api/auth/register"].Post
	require.NotNil(t, op)
	assert.Equal(t, []string{"Auth"}, op.Tags)
	assert.Empty(t, op.Security)

	body := op.RequestBody.Content["application/json"].Schema
	assert.Equal(t, []string{"email", "password"}, body.Required)
	require.NotNil(t, body.Properties["password"].MinLength)
	assert.Equal(t, 8, *body.Properties["password"].MinLength)

	assert.Contains(t, op.Responses, "201")
	assert.Contains(t, op.Responses, "400")
	assert.Equal(t, "Internal server error", op.Responses["500"].Description)

	user := op.Responses["201"].Content["application/json"].Schema.Properties["user"]
	require.NotNil(t, user)
	assert.Contains(t, user.Properties, "createdAt")
	assert.NotContains(t, user.Properties, "password")
}

func TestNew_Servers(t *testing.T) {
	dev, err := New(Options{HTTPPort: "8080"})
	require.NoError(t, err)
	assert.Equal(t, []Server{{URL: "http://localhost:8080", Description: "Development server"}}, dev.Servers)

	prod, err := New(Options{Production: true, PublicBaseURL: "https://api.example.com"})
	require.NoError(t, err)
	assert.Equal(t, []Server{{URL: "https://api.example.com", Description: "Production server"}}, prod.Servers)
}

func TestDocument_JSON(t *testing.T) {
	doc, err := New(Options{})
	require.NoError(t, err)

	b, err := doc.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "3.0.0", decoded["openapi"])
	assert.NotContains(t, decoded, "x-shared")

	admin := doc.Paths["/api/admin/users"].Get
	require.Len(t, admin.Parameters, 2)
	assert.Equal(t, 1, admin.Parameters[0].Schema.Default)
	assert.Equal(t, "Forbidden: Admin access required",
		admin.Responses["403"].Content["application/json"].Schema.Properties["error"].Example)
}
