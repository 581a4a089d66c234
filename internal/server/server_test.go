package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/models"
	"murmur/internal/service"
	"murmur/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Correct-Horse-9"

// aiStub answers like the AI service. Text containing "buy now" is spam.
func aiStub(follows []uint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/checkspam":
			var req struct {
				Text string `json:"text"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"isSpam": strings.Contains(strings.ToLower(req.Text), "buy now"),
				"text":   req.Text,
			})
		case strings.HasPrefix(r.URL.Path, "/suggestedfollows/"):
			_ = json.NewEncoder(w).Encode(follows)
		case strings.HasPrefix(r.URL.Path, "/suggestedposts/"):
			_, _ = w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T, ai http.Handler) *testEnv {
	t.Helper()

	upstream := httptest.NewServer(ai)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Env:              "test",
		AccessSecret:     "test-access-secret",
		AccessExpires:    time.Minute,
		RefreshSecret:    "test-refresh-secret",
		RefreshExpires:   time.Hour,
		AIServiceBaseURL: upstream.URL,
		AIServiceTimeout: 500 * time.Millisecond,
		BaseAppURL:       "http://localhost:3000",
	}
	db := testutil.NewSQLiteDB(t)

	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testEnv{app: s.NewApp(), db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) signup(t *testing.T, username string) service.AuthResult {
	t.Helper()

	status, raw := e.do(t, http.MethodPost, "/api/auth/signup", "", service.SignupInput{
		Email:     username + "@example.com",
		Username:  username,
		Password:  testPassword,
		FirstName: username,
		LastName:  "Tester",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var res service.AuthResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func decodeError(t *testing.T, raw []byte) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))

	status, _ := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, raw := env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
	assert.Equal(t, "closed", body.Checks["ai_service"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))

	for _, path := range []string{"/api/post/following", "/api/user/followers", "/api/user/profile/1"} {
		t.Run(path, func(t *testing.T) {
			status, raw := env.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, models.CodeUnauthorized, decodeError(t, raw).Code)
		})
	}

	status, _ := env.do(t, http.MethodGet, "/api/post/following", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")
	assert.NotEmpty(t, alice.Tokens.AccessToken)
	assert.NotEmpty(t, alice.Tokens.RefreshToken)
	assert.Equal(t, "alice", alice.User.Username)

	t.Run("duplicate username", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/signup", "", service.SignupInput{
			Email: "other@example.com", Username: "alice", Password: testPassword,
			FirstName: "Other", LastName: "Person",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		body := decodeError(t, raw)
		assert.Equal(t, models.CodeConflict, body.Code)
		assert.Equal(t, "username", body.Target)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/signin", "", service.SigninInput{
			Email: "alice@example.com", Password: "Wrong-Horse-99",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Wrong email or password.", decodeError(t, raw).Error)
	})

	status, raw := env.do(t, http.MethodPost, "/api/auth/signin", "", service.SigninInput{
		Email: "alice@example.com", Password: testPassword,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var signin service.AuthResult
	require.NoError(t, json.Unmarshal(raw, &signin))

	// Signin rotated the stored hash, so the signup refresh token is dead.
	status, raw = env.do(t, http.MethodPost, "/api/auth/refresh", alice.Tokens.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access denied.", decodeError(t, raw).Error)

	status, raw = env.do(t, http.MethodPost, "/api/auth/refresh", signin.Tokens.RefreshToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var rotated struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(raw, &rotated))
	assert.NotEqual(t, signin.Tokens.RefreshToken, rotated.RefreshToken)

	t.Run("refresh token is single use", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/auth/refresh", signin.Tokens.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		status, raw := env.do(t, http.MethodPost, "/api/auth/refresh", rotated.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Refresh token malformed.", decodeError(t, raw).Error)
	})

	status, _ = env.do(t, http.MethodPost, "/api/auth/signout", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/auth/refresh", rotated.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFollowLikeAndFeeds(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	token := alice.Tokens.AccessToken

	post := testutil.CreatePost(t, env.db, bob.User.ID, "hello from bob", time.Now().Add(-time.Minute))

	status, raw := env.do(t, http.MethodPost, "/api/user/follow", token, map[string]uint{"followId": bob.User.ID})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.JSONEq(t, `{"followStatus":true}`, string(raw))

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/user/%d/checkFollow", bob.User.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"followStatus":true}`, string(raw))

	status, raw = env.do(t, http.MethodPost, "/api/user/follow", token, map[string]uint{"followId": alice.User.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot follow yourself.", decodeError(t, raw).Error)

	status, raw = env.do(t, http.MethodPost, fmt.Sprintf("/api/like/add/%d", post.ID), token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.JSONEq(t, `{"status":true}`, string(raw))

	status, raw = env.do(t, http.MethodGet, "/api/post/following", token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var feed []models.PostView
	require.NoError(t, json.Unmarshal(raw, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
	assert.True(t, feed[0].Controls.IsLiked)
	assert.EqualValues(t, 1, feed[0].Counts.Likes)

	// Controls belong to the viewer, so bob sees his own post as not liked.
	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/post/%d", post.ID), bob.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var view models.PostView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.False(t, view.Controls.IsLiked)
	assert.EqualValues(t, 1, view.Counts.Likes)

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/user/%d/likes", alice.User.ID), bob.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var likes []models.PostView
	require.NoError(t, json.Unmarshal(raw, &likes))
	require.Len(t, likes, 1)
	assert.Equal(t, post.ID, likes[0].ID)

	status, raw = env.do(t, http.MethodPost, "/api/like/add/999999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "There is no post with this ID.", decodeError(t, raw).Error)

	status, raw = env.do(t, http.MethodPost, "/api/user/unfollow", token, map[string]uint{"followId": bob.User.ID})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"followStatus":false}`, string(raw))

	status, _ = env.do(t, http.MethodPost, "/api/user/unfollow", token, map[string]uint{"followId": bob.User.ID})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSuggestedFollowsKeepUpstreamOrder(t *testing.T) {
	var suggestions []uint
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aiStub(suggestions)(w, r)
	}))
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	carol := env.signup(t, "carol")
	suggestions = []uint{carol.User.ID, alice.User.ID, bob.User.ID, carol.User.ID}

	status, raw := env.do(t, http.MethodGet, "/api/user/suggestedFollows", alice.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var users []models.UserSummary
	require.NoError(t, json.Unmarshal(raw, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	post := testutil.CreatePost(t, env.db, bob.User.ID, "bob's post", time.Now())
	addPath := fmt.Sprintf("/api/comment/add/%d", post.ID)

	status, raw := env.do(t, http.MethodPost, addPath, alice.Tokens.AccessToken, map[string]string{"text": "Buy now, limited offer"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeSpam, decodeError(t, raw).Code)

	status, raw = env.do(t, http.MethodPost, addPath, alice.Tokens.AccessToken, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, raw = env.do(t, http.MethodPost, addPath, alice.Tokens.AccessToken, map[string]string{"text": "  nice one  "})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var comment models.CommentView
	require.NoError(t, json.Unmarshal(raw, &comment))
	assert.Equal(t, "nice one", comment.Text)
	assert.Equal(t, alice.User.ID, comment.Author.ID)

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/post/%d/comments", post.ID), bob.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var comments []models.CommentView
	require.NoError(t, json.Unmarshal(raw, &comments))
	require.Len(t, comments, 1)

	removePath := fmt.Sprintf("/api/comment/remove/%d", comment.ID)
	status, _ = env.do(t, http.MethodPost, removePath, bob.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, removePath, alice.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/api/post/999999/comments", bob.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCommentModerationUnavailable(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	alice := env.signup(t, "alice")
	post := testutil.CreatePost(t, env.db, alice.User.ID, "post", time.Now())

	status, raw := env.do(t, http.MethodPost, fmt.Sprintf("/api/comment/add/%d", post.ID), alice.Tokens.AccessToken, map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Moderation service unavailable.", decodeError(t, raw).Error)

	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditProfile(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")
	env.signup(t, "bob")

	status, raw := env.do(t, http.MethodPost, "/api/user/edit", alice.Tokens.AccessToken, map[string]any{
		"username": "alice_w",
		"profile":  map[string]string{"firstname": "Alicia", "city": "Lisbon"},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	var profile models.UserProfileView
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Equal(t, "alice_w", profile.Username)
	assert.Equal(t, "Alicia", profile.Profile.FirstName)
	assert.Equal(t, "Lisbon", profile.Profile.City)

	status, raw = env.do(t, http.MethodPost, "/api/user/edit", alice.Tokens.AccessToken, map[string]any{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeConflict, decodeError(t, raw).Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/post/following", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebsocketUnavailableWithoutRedis(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")

	status, _ := env.do(t, http.MethodGet, "/api/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/ws?token="+alice.Tokens.AccessToken, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestFeedRejectsPagesPastWindow(t *testing.T) {
	env := newTestEnv(t, aiStub(nil))
	alice := env.signup(t, "alice")
	token := alice.Tokens.AccessToken

	status, _ := env.do(t, http.MethodGet, "/api/post/following?limit=20&offset=980", token, nil)
	assert.Equal(t, http.StatusOK, status)

	for _, path := range []string{
		"/api/post/following?limit=20&offset=990",
		fmt.Sprintf("/api/user/%d/posts?offset=1000", alice.User.ID),
		fmt.Sprintf("/api/user/%d/likes?limit=100&offset=950", alice.User.ID),
	} {
		status, raw := env.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusBadRequest, status, path)
		body := decodeError(t, raw)
		assert.Equal(t, models.CodeValidation, body.Code)
		assert.Equal(t, "Offset plus limit must not exceed 1000.", body.Error)
	}
}
