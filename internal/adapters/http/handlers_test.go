package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/taskmanager/internal/adapters/repository/repotest"
	"github.com/taskmaster/taskmanager/internal/application/services"
	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

type testApp struct {
	t          *testing.T
	store      *repotest.Store
	users      *services.UserService
	flashStore *sessions.CookieStore
	server     *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := repotest.NewStore()
	log := logger.NewNop()
	session := config.SessionConfig{
		Secret:     "test-secret",
		ExpiresIn:  time.Hour,
		Issuer:     "task-manager-test",
		CookieName: "sessionid",
	}

	authService := services.NewAuthService(store.Users(), session, log)
	userService := services.NewUserService(store.Users(), log)
	statusService := services.NewStatusService(store.Statuses(), log)
	labelService := services.NewLabelService(store.Labels(), log)
	taskService := services.NewTaskService(store.Tasks(), store.Users(), store.Statuses(), store.Labels(), log)

	e := echo.New()
	handlers := &Handlers{
		Auth:     NewAuthHandler(authService, session, log),
		Users:    NewUserHandler(userService, session, log),
		Statuses: NewStatusHandler(statusService, log),
		Labels:   NewLabelHandler(labelService, log),
		Tasks:    NewTaskHandler(taskService, userService, statusService, labelService, log),
	}
	flashStore := NewFlashStore(session)
	guards := NewGuards(authService, userService, taskService, session, log)
	require.NoError(t, RegisterRoutes(e, handlers, guards, flashStore))

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &testApp{t: t, store: store, users: userService, flashStore: flashStore, server: server}
}

// client is a browser-like session that does not follow redirects
type client struct {
	app  *testApp
	http *http.Client
}

func (app *testApp) newClient() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(app.t, err)
	return &client{
		app: app,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) get(path string) (*http.Response, string) {
	c.app.t.Helper()
	resp, err := c.http.Get(c.app.server.URL + path)
	require.NoError(c.app.t, err)
	return resp, readBody(c.app.t, resp)
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	c.app.t.Helper()
	resp, err := c.http.PostForm(c.app.server.URL+path, form)
	require.NoError(c.app.t, err)
	return resp, readBody(c.app.t, resp)
}

// follow asserts a 302 to location and returns the page it leads to
func (c *client) follow(resp *http.Response, location string) string {
	c.app.t.Helper()
	require.Equal(c.app.t, http.StatusFound, resp.StatusCode)
	require.Equal(c.app.t, location, resp.Header.Get(echo.HeaderLocation))
	_, body := c.get(location)
	return body
}

func (c *client) login(username, password string) {
	c.app.t.Helper()
	resp, _ := c.post("/login/", url.Values{"username": {username}, "password": {password}})
	c.follow(resp, "/")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func (app *testApp) responseFlashes(resp *http.Response) []Flash {
	return readFlashCookie(app.t, app.flashStore, resp.Cookies())
}

func (app *testApp) register(username string) *entities.User {
	app.t.Helper()
	user, err := app.users.Register(context.Background(), ports.RegisterUserRequest{
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Password1: "pass",
		Password2: "pass",
	})
	require.NoError(app.t, err)
	return user
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestRequireLogin(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")

	paths := []string{
		"/statuses/", "/statuses/create/", "/statuses/1/update/", "/statuses/1/delete/",
		"/labels/", "/labels/create/", "/labels/1/update/", "/labels/1/delete/",
		"/tasks/", "/tasks/create/", "/tasks/1/", "/tasks/1/update/", "/tasks/1/delete/",
		"/users/" + id(alice.ID) + "/update/", "/users/" + id(alice.ID) + "/delete/",
	}

	for _, path := range paths {
		t.Run("GET "+path, func(t *testing.T) {
			resp, _ := app.newClient().get(path)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))
			assert.Equal(t, []Flash{{Level: FlashError, Message: msgNotLoggedIn}}, app.responseFlashes(resp))
		})
	}

	t.Run("POST does not mutate", func(t *testing.T) {
		anon := app.newClient()
		resp, _ := anon.post("/statuses/create/", url.Values{"name": {"New"}})
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))

		resp, _ = anon.post("/users/"+id(alice.ID)+"/delete/", nil)
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))

		users, statuses, _, _ := app.store.Counts()
		assert.Equal(t, 1, users)
		assert.Equal(t, 0, statuses)
	})

	t.Run("flash is shown once on the login page", func(t *testing.T) {
		anon := app.newClient()
		resp, _ := anon.get("/tasks/")
		body := anon.follow(resp, "/login/")
		assert.Equal(t, 1, strings.Count(body, msgNotLoggedIn))

		_, body = anon.get("/login/")
		assert.NotContains(t, body, msgNotLoggedIn)
	})

	t.Run("public pages", func(t *testing.T) {
		anon := app.newClient()
		for _, path := range []string{"/", "/users/", "/users/create/", "/login/"} {
			resp, _ := anon.get(path)
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
	})
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient()

	valid := url.Values{
		"first_name": {"John"},
		"last_name":  {"Doe"},
		"username":   {"john"},
		"password1":  {"abc"},
		"password2":  {"abc"},
	}

	t.Run("register redirects to login", func(t *testing.T) {
		resp, _ := c.post("/users/create/", valid)
		body := c.follow(resp, "/login/")
		assert.Contains(t, body, "User has been registered successfully")

		users, _, _, _ := app.store.Counts()
		assert.Equal(t, 1, users)
	})

	t.Run("duplicate username is a field error", func(t *testing.T) {
		resp, body := c.post("/users/create/", valid)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, msgUsernameTaken)
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		form := url.Values{
			"first_name": {"Jane"}, "last_name": {"Doe"}, "username": {"jane"},
			"password1": {"abc"}, "password2": {"xyz"},
		}
		resp, body := c.post("/users/create/", form)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "The two password fields didn")

		users, _, _, _ := app.store.Counts()
		assert.Equal(t, 1, users)
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		long := strings.Repeat("p", 80)
		resp, _ := c.post("/users/create/", url.Values{
			"first_name": {"Long"}, "last_name": {"Pass"}, "username": {"longpass"},
			"password1": {long}, "password2": {long},
		})
		c.follow(resp, "/login/")

		other := app.newClient()
		other.login("longpass", long)

		resp, body := other.post("/login/", url.Values{"username": {"longpass"}, "password": {long[:72]}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, msgBadCredentials)
	})

	t.Run("bad credentials", func(t *testing.T) {
		resp, body := c.post("/login/", url.Values{"username": {"john"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, msgBadCredentials)
	})

	t.Run("login and logout", func(t *testing.T) {
		resp, _ := c.post("/login/", url.Values{"username": {"john"}, "password": {"abc"}})
		body := c.follow(resp, "/")
		assert.Contains(t, body, "You are logged in")
		assert.Contains(t, body, "John Doe")

		resp, _ = c.get("/statuses/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		u, err := url.Parse(app.server.URL)
		require.NoError(t, err)
		var session *http.Cookie
		for _, cookie := range c.http.Jar.Cookies(u) {
			if cookie.Name == "sessionid" {
				session = cookie
			}
		}
		require.NotNil(t, session)

		resp, _ = c.post("/logout/", nil)
		body = c.follow(resp, "/")
		assert.Contains(t, body, "You are logged out")

		resp, _ = c.get("/statuses/")
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))

		replay := app.newClient()
		replay.http.Jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: session.Value, Path: "/"}})
		resp, _ = replay.get("/statuses/")
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))
	})

	t.Run("forged session cookie is anonymous", func(t *testing.T) {
		forged := app.newClient()
		u, err := url.Parse(app.server.URL)
		require.NoError(t, err)
		forged.http.Jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "not-a-token", Path: "/"}})

		resp, _ := forged.get("/statuses/")
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))
	})
}

func TestUserOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	bob := app.register("bob")

	c := app.newClient()
	c.login("alice", "pass")

	t.Run("another user's pages are rejected", func(t *testing.T) {
		for _, path := range []string{"/users/" + id(bob.ID) + "/update/", "/users/" + id(bob.ID) + "/delete/"} {
			resp, _ := c.get(path)
			assert.Equal(t, "/users/", resp.Header.Get(echo.HeaderLocation))
			assert.Equal(t, []Flash{{Level: FlashError, Message: msgNotOwner}}, app.responseFlashes(resp))
			c.follow(resp, "/users/")
		}

		resp, _ := c.post("/users/"+id(bob.ID)+"/update/", url.Values{
			"first_name": {"Hacked"}, "last_name": {"X"}, "username": {"hacked"},
		})
		assert.Equal(t, "/users/", resp.Header.Get(echo.HeaderLocation))

		resp, _ = c.post("/users/"+id(bob.ID)+"/delete/", nil)
		assert.Equal(t, "/users/", resp.Header.Get(echo.HeaderLocation))

		got, err := app.users.GetUser(context.Background(), bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
	})

	t.Run("own update", func(t *testing.T) {
		resp, body := c.get("/users/" + id(alice.ID) + "/update/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `value="alice"`)

		resp, body = c.post("/users/"+id(alice.ID)+"/update/", url.Values{
			"first_name": {"Alice"}, "last_name": {"Liddell"}, "username": {"bob"},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, msgUsernameTaken)

		resp, _ = c.post("/users/"+id(alice.ID)+"/update/", url.Values{
			"first_name": {"Alice"}, "last_name": {"Liddell"}, "username": {"alice"},
		})
		body = c.follow(resp, "/users/")
		assert.Contains(t, body, "User has been updated successfully")
		assert.Contains(t, body, "Alice Liddell")
	})

	t.Run("own delete", func(t *testing.T) {
		resp, _ := c.post("/users/"+id(alice.ID)+"/delete/", nil)
		body := c.follow(resp, "/users/")
		assert.Contains(t, body, "User has been deleted successfully")

		users, _, _, _ := app.store.Counts()
		assert.Equal(t, 1, users)

		resp, _ = c.get("/statuses/")
		assert.Equal(t, "/login/", resp.Header.Get(echo.HeaderLocation))
	})

	t.Run("malformed id", func(t *testing.T) {
		b := app.newClient()
		b.login("bob", "pass")

		resp, _ := b.get("/users/abc/update/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = b.get("/users/999/update/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = b.post("/users/999/delete/", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStatusPages(t *testing.T) {
	app := newTestApp(t)
	user := app.register("alice")
	c := app.newClient()
	c.login("alice", "pass")
	ctx := context.Background()

	resp, _ := c.post("/statuses/create/", url.Values{"name": {"New"}})
	body := c.follow(resp, "/statuses/")
	assert.Contains(t, body, "Status created successfully")
	assert.Contains(t, body, "New")

	status, err := app.store.Statuses().GetByName(ctx, "New")
	require.NoError(t, err)

	t.Run("duplicate and empty names", func(t *testing.T) {
		resp, body := c.post("/statuses/create/", url.Values{"name": {"New"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Status with this Name already exists.")

		_, statuses, _, _ := app.store.Counts()
		assert.Equal(t, 1, statuses)

		resp, body = c.post("/statuses/create/", url.Values{"name": {"   "}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "This field is required.")

		_, statuses, _, _ = app.store.Counts()
		assert.Equal(t, 1, statuses)
	})

	t.Run("rename onto an existing name", func(t *testing.T) {
		other := &entities.Status{Name: "Other"}
		require.NoError(t, app.store.Statuses().Create(ctx, other))

		resp, body := c.post("/statuses/"+id(other.ID)+"/update/", url.Values{"name": {"New"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Status with this Name already exists.")

		got, err := app.store.Statuses().GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "Other", got.Name)

		require.NoError(t, app.store.Statuses().Delete(ctx, other.ID))
	})

	t.Run("update", func(t *testing.T) {
		resp, body := c.get("/statuses/" + id(status.ID) + "/update/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `value="New"`)

		resp, _ = c.post("/statuses/"+id(status.ID)+"/update/", url.Values{"name": {"Open"}})
		body = c.follow(resp, "/statuses/")
		assert.Contains(t, body, "Status updated successfully")
		assert.Contains(t, body, "Open")
	})

	t.Run("unknown ids", func(t *testing.T) {
		resp, _ := c.get("/statuses/999/update/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = c.post("/statuses/999/delete/", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = c.get("/statuses/abc/delete/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete protection", func(t *testing.T) {
		task := &entities.Task{Name: "t", Description: "d", AuthorID: user.ID, ExecutorID: user.ID, StatusID: status.ID}
		require.NoError(t, app.store.Tasks().Create(ctx, task, nil))

		resp, _ := c.post("/statuses/"+id(status.ID)+"/delete/", nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/statuses/", resp.Header.Get(echo.HeaderLocation))
		assert.Equal(t, []Flash{{Level: FlashError, Message: "Unable to delete status because it is in use"}}, app.responseFlashes(resp))

		_, statuses, _, _ := app.store.Counts()
		assert.Equal(t, 1, statuses)

		require.NoError(t, app.store.Tasks().Delete(ctx, task.ID))

		resp, body := c.get("/statuses/" + id(status.ID) + "/delete/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Open")

		resp, _ = c.post("/statuses/"+id(status.ID)+"/delete/", nil)
		body = c.follow(resp, "/statuses/")
		assert.Contains(t, body, "Status deleted successfully")

		_, statuses, _, _ = app.store.Counts()
		assert.Equal(t, 0, statuses)
	})
}

func TestTaskAuthorship(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	bob := app.register("bob")
	ctx := context.Background()

	status := &entities.Status{Name: "New"}
	require.NoError(t, app.store.Statuses().Create(ctx, status))
	task := &entities.Task{Name: "Alice's task", Description: "d", AuthorID: alice.ID, ExecutorID: bob.ID, StatusID: status.ID}
	require.NoError(t, app.store.Tasks().Create(ctx, task, nil))

	b := app.newClient()
	b.login("bob", "pass")

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method+" by non-author", func(t *testing.T) {
			var resp *http.Response
			if method == http.MethodGet {
				resp, _ = b.get("/tasks/" + id(task.ID) + "/delete/")
			} else {
				resp, _ = b.post("/tasks/"+id(task.ID)+"/delete/", nil)
			}
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/tasks/", resp.Header.Get(echo.HeaderLocation))
			assert.Equal(t, []Flash{{Level: FlashError, Message: msgNotTaskAuthor}}, app.responseFlashes(resp))
			b.follow(resp, "/tasks/")
		})
	}

	_, _, _, tasks := app.store.Counts()
	assert.Equal(t, 1, tasks)

	t.Run("executor may still update", func(t *testing.T) {
		resp, _ := b.post("/tasks/"+id(task.ID)+"/update/", url.Values{
			"name": {"Renamed"}, "description": {"d"}, "status": {id(status.ID)}, "executor": {id(bob.ID)},
		})
		body := b.follow(resp, "/tasks/")
		assert.Contains(t, body, "Task updated successfully")

		got, err := app.store.Tasks().GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.AuthorID)
	})

	t.Run("author deletes", func(t *testing.T) {
		a := app.newClient()
		a.login("alice", "pass")

		resp, _ := a.post("/tasks/"+id(task.ID)+"/delete/", nil)
		body := a.follow(resp, "/tasks/")
		assert.Contains(t, body, "Task deleted successfully")

		resp, _ = a.get("/tasks/" + id(task.ID) + "/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown task", func(t *testing.T) {
		resp, _ := b.get("/tasks/999/delete/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestTaskFormErrors(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	ctx := context.Background()
	status := &entities.Status{Name: "New"}
	require.NoError(t, app.store.Statuses().Create(ctx, status))

	c := app.newClient()
	c.login("alice", "pass")

	resp, body := c.post("/tasks/create/", url.Values{"name": {"x"}, "description": {"d"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")

	resp, body = c.post("/tasks/create/", url.Values{
		"name": {"x"}, "description": {"d"}, "status": {id(status.ID)}, "executor": {"999"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgInvalidChoice)

	resp, body = c.post("/tasks/create/", url.Values{
		"name": {"x"}, "description": {"d"}, "status": {id(status.ID)}, "executor": {id(alice.ID)}, "labels": {"999"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgInvalidChoice)

	_, _, _, tasks := app.store.Counts()
	assert.Equal(t, 0, tasks)

	resp, _ = c.post("/tasks/create/", url.Values{
		"name": {"x"}, "description": {"d"}, "status": {id(status.ID)}, "executor": {id(alice.ID)},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body = c.post("/tasks/create/", url.Values{
		"name": {"x"}, "description": {"d"}, "status": {id(status.ID)}, "executor": {id(alice.ID)},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Task with this Name already exists.")

	_, _, _, tasks = app.store.Counts()
	assert.Equal(t, 1, tasks)
}

func TestTaskMalformedChoices(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	ctx := context.Background()
	status := &entities.Status{Name: "New"}
	require.NoError(t, app.store.Statuses().Create(ctx, status))
	task := &entities.Task{Name: "Existing", Description: "d", AuthorID: alice.ID, ExecutorID: alice.ID, StatusID: status.ID}
	require.NoError(t, app.store.Tasks().Create(ctx, task, nil))

	c := app.newClient()
	c.login("alice", "pass")

	valid := func() url.Values {
		return url.Values{
			"name": {"New task"}, "description": {"d"},
			"status": {id(status.ID)}, "executor": {id(alice.ID)},
		}
	}

	tests := []struct {
		field string
		value string
	}{
		{"status", "abc"},
		{"executor", "1.5"},
		{"labels", "abc"},
		{"status", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			form := valid()
			form.Set(tt.field, tt.value)

			for _, path := range []string{"/tasks/create/", "/tasks/" + id(task.ID) + "/update/"} {
				resp, body := c.post(path, form)
				assert.Equal(t, http.StatusOK, resp.StatusCode, path)
				assert.Equal(t, 1, strings.Count(body, msgInvalidChoice), path)
				assert.NotContains(t, body, "This field is required.", path)
			}

			_, _, _, tasks := app.store.Counts()
			assert.Equal(t, 1, tasks)
			got, err := app.store.Tasks().GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, "Existing", got.Name)
		})
	}
}

func TestLabelPages(t *testing.T) {
	app := newTestApp(t)
	user := app.register("alice")
	c := app.newClient()
	c.login("alice", "pass")
	ctx := context.Background()

	resp, _ := c.post("/labels/create/", url.Values{"name": {"Bug"}})
	body := c.follow(resp, "/labels/")
	assert.Contains(t, body, "Label created successfully")
	assert.Contains(t, body, "Bug")

	label, err := app.store.Labels().GetByName(ctx, "Bug")
	require.NoError(t, err)

	t.Run("create form", func(t *testing.T) {
		resp, body := c.get("/labels/create/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `name="name"`)
	})

	t.Run("duplicate and empty names", func(t *testing.T) {
		resp, body := c.post("/labels/create/", url.Values{"name": {"Bug"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Label with this Name already exists.")

		_, _, labels, _ := app.store.Counts()
		assert.Equal(t, 1, labels)

		resp, body = c.post("/labels/create/", url.Values{"name": {""}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "This field is required.")

		_, _, labels, _ = app.store.Counts()
		assert.Equal(t, 1, labels)
	})

	t.Run("update", func(t *testing.T) {
		other := &entities.Label{Name: "Feature"}
		require.NoError(t, app.store.Labels().Create(ctx, other))

		resp, body := c.get("/labels/" + id(label.ID) + "/update/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `value="Bug"`)

		resp, body = c.post("/labels/"+id(label.ID)+"/update/", url.Values{"name": {"Feature"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Label with this Name already exists.")

		got, err := app.store.Labels().GetByID(ctx, label.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bug", got.Name)

		resp, _ = c.post("/labels/"+id(label.ID)+"/update/", url.Values{"name": {"Defect"}})
		body = c.follow(resp, "/labels/")
		assert.Contains(t, body, "Label updated successfully")
		assert.Contains(t, body, "Defect")

		require.NoError(t, app.store.Labels().Delete(ctx, other.ID))
	})

	t.Run("unknown ids", func(t *testing.T) {
		resp, _ := c.get("/labels/999/update/")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = c.post("/labels/999/delete/", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete protection", func(t *testing.T) {
		status := &entities.Status{Name: "New"}
		require.NoError(t, app.store.Statuses().Create(ctx, status))
		task := &entities.Task{Name: "t", Description: "d", AuthorID: user.ID, ExecutorID: user.ID, StatusID: status.ID}
		require.NoError(t, app.store.Tasks().Create(ctx, task, []int64{label.ID}))

		resp, _ := c.post("/labels/"+id(label.ID)+"/delete/", nil)
		assert.Equal(t, "/labels/", resp.Header.Get(echo.HeaderLocation))
		assert.Equal(t, []Flash{{Level: FlashError, Message: "Unable to delete label because it is in use"}}, app.responseFlashes(resp))
		c.follow(resp, "/labels/")

		_, _, labels, _ := app.store.Counts()
		assert.Equal(t, 1, labels)

		require.NoError(t, app.store.Tasks().Delete(ctx, task.ID))

		resp, _ = c.post("/labels/"+id(label.ID)+"/delete/", nil)
		body := c.follow(resp, "/labels/")
		assert.Contains(t, body, "Label deleted successfully")

		_, _, labels, _ = app.store.Counts()
		assert.Equal(t, 0, labels)
	})
}

func TestTaskFilter(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice")
	bob := app.register("bob")
	ctx := context.Background()

	open := &entities.Status{Name: "open"}
	closed := &entities.Status{Name: "closed"}
	require.NoError(t, app.store.Statuses().Create(ctx, open))
	require.NoError(t, app.store.Statuses().Create(ctx, closed))
	bug := &entities.Label{Name: "bug"}
	require.NoError(t, app.store.Labels().Create(ctx, bug))

	create := func(name string, author, executor *entities.User, status *entities.Status, labels ...int64) {
		task := &entities.Task{Name: name, Description: "d", AuthorID: author.ID, ExecutorID: executor.ID, StatusID: status.ID}
		require.NoError(t, app.store.Tasks().Create(ctx, task, labels))
	}
	create("TaskOne", alice, alice, open, bug.ID)
	create("TaskTwo", alice, bob, closed)
	create("TaskThree", bob, bob, open)

	c := app.newClient()
	c.login("alice", "pass")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"TaskOne", "TaskTwo", "TaskThree"}},
		{"?status=" + id(open.ID), []string{"TaskOne", "TaskThree"}},
		{"?executor=" + id(bob.ID), []string{"TaskTwo", "TaskThree"}},
		{"?label=" + id(bug.ID), []string{"TaskOne"}},
		{"?self_tasks=on", []string{"TaskOne", "TaskTwo"}},
		{"?self_tasks=on&status=" + id(open.ID), []string{"TaskOne"}},
		{"?status=" + id(closed.ID) + "&label=" + id(bug.ID), nil},
		{"?status=&executor=abc&self_tasks=off", []string{"TaskOne", "TaskTwo", "TaskThree"}},
	}

	all := []string{"TaskOne", "TaskTwo", "TaskThree"}
	for _, tt := range tests {
		t.Run("filter"+tt.query, func(t *testing.T) {
			resp, body := c.get("/tasks/" + tt.query)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			for _, name := range all {
				if contains(tt.want, name) {
					assert.Contains(t, body, ">"+name+"<")
				} else {
					assert.NotContains(t, body, ">"+name+"<")
				}
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestEndToEnd(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient()
	ctx := context.Background()

	resp, _ := c.post("/users/create/", url.Values{
		"first_name": {"Ann"}, "last_name": {"Smith"}, "username": {"ann"},
		"password1": {"secret"}, "password2": {"secret"},
	})
	c.follow(resp, "/login/")

	resp, _ = c.post("/login/", url.Values{"username": {"ann"}, "password": {"secret"}})
	c.follow(resp, "/")

	resp, _ = c.post("/statuses/create/", url.Values{"name": {"New"}})
	c.follow(resp, "/statuses/")

	resp, _ = c.post("/labels/create/", url.Values{"name": {"Bug"}})
	body := c.follow(resp, "/labels/")
	assert.Contains(t, body, "Label created successfully")

	ann, err := app.store.Users().GetByUsername(ctx, "ann")
	require.NoError(t, err)
	status, err := app.store.Statuses().GetByName(ctx, "New")
	require.NoError(t, err)
	label, err := app.store.Labels().GetByName(ctx, "Bug")
	require.NoError(t, err)

	resp, _ = c.post("/tasks/create/", url.Values{
		"name":        {"First task"},
		"description": {"Something to do"},
		"status":      {id(status.ID)},
		"executor":    {id(ann.ID)},
		"labels":      {id(label.ID)},
	})
	body = c.follow(resp, "/tasks/")
	assert.Contains(t, body, "Task created successfully")
	assert.Contains(t, body, "First task")
	assert.Contains(t, body, "Ann Smith")

	task, err := app.store.Tasks().GetByName(ctx, "First task")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, task.AuthorID)
	assert.Equal(t, ann.ID, task.ExecutorID)
	assert.Equal(t, status.ID, task.StatusID)
	assert.Equal(t, []int64{label.ID}, task.LabelIDs())

	_, body = c.get("/tasks/" + id(task.ID) + "/")
	assert.Contains(t, body, "Something to do")
	assert.Contains(t, body, "<li>Bug</li>")

	resp, _ = c.post("/labels/"+id(label.ID)+"/delete/", nil)
	body = c.follow(resp, "/labels/")
	assert.Contains(t, body, "Unable to delete label because it is in use")

	resp, _ = c.post("/tasks/"+id(task.ID)+"/delete/", nil)
	body = c.follow(resp, "/tasks/")
	assert.Contains(t, body, "Task deleted successfully")

	resp, _ = c.post("/labels/"+id(label.ID)+"/delete/", nil)
	body = c.follow(resp, "/labels/")
	assert.Contains(t, body, "Label deleted successfully")

	_, _, labels, tasks := app.store.Counts()
	assert.Equal(t, 0, labels)
	assert.Equal(t, 0, tasks)
}
