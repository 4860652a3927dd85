package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"blog/internal/auth"
	"blog/internal/db"
	"blog/internal/events"
	"blog/internal/logger"
	"blog/internal/models"
	"blog/internal/store"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

//
// --- Setup ---
//

type testApp struct {
	h      http.Handler
	store  *store.SQLStore
	events *events.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dbc, err := db.Open(filepath.Join(t.TempDir(), "blog.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Migrate(dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(dbc)
	t.Cleanup(func() { st.Close() })

	rec := &events.Recorder{}
	digester, _ := auth.NewDigester(auth.SchemeSHA256, 0)
	h := New(st, auth.NewManager(st), digester, rec, logger.NewWithOutput(io.Discard, "error", "json"))
	return &testApp{h: h.Routes(false), store: st, events: rec}
}

// do sends a request through the router. form may be nil.
func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

// signup creates an account and returns the session cookie value.
func (a *testApp) signup(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/blog/signup", url.Values{
		"username": {username},
		"password": {password},
		"verify":   {password},
	}, "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signup %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

// newPost publishes a post and returns its id.
func (a *testApp) newPost(t *testing.T, cookie, title, body string) int64 {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/blog/newpost", url.Values{"subject": {title}, "content": {body}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("newpost: status %d: %s", rec.Code, rec.Body.String())
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(rec.Header().Get("Location"), "/blog/"), 10, 64)
	if err != nil {
		t.Fatalf("unexpected Location %q", rec.Header().Get("Location"))
	}
	return id
}

func (a *testApp) score(t *testing.T, postID int64) int {
	t.Helper()
	s, err := a.store.CountLikeScore(context.Background(), postID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return s
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func postPath(id int64, suffix string) string {
	return "/blog/" + strconv.FormatInt(id, 10) + suffix
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != location {
		t.Fatalf("expected 303 to %s, got %d %q", location, rec.Code, rec.Header().Get("Location"))
	}
}

func assertBody(t *testing.T, rec *httptest.ResponseRecorder, status int, want string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("expected body to contain %q, got: %s", want, rec.Body.String())
	}
}

//
// --- Tests ---
//

func TestGreetAndHealth(t *testing.T) {
	a := newTestApp(t)
	assertBody(t, a.do(t, http.MethodGet, "/", nil, ""), http.StatusOK, "Welcome")
	assertBody(t, a.do(t, http.MethodGet, "/healthz", nil, ""), http.StatusOK, `{"ok":true}`)
	assertBody(t, a.do(t, http.MethodGet, "/nope", nil, ""), http.StatusNotFound, "does not exist")
}

func TestBlogRequiresLogin(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice", "pw123")

	for _, path := range []string{"/blog", "/blog/newpost", "/blog/1"} {
		assertRedirect(t, a.do(t, http.MethodGet, path, nil, ""), "/blog/login")
	}
	// a cookie whose fragment does not match the stored digest is anonymous
	assertRedirect(t, a.do(t, http.MethodGet, "/blog", nil, "alice|deadbeef"), "/blog/login")
}

func TestSignupIssuesDigestCookie(t *testing.T) {
	a := newTestApp(t)
	cookie := a.signup(t, "alice", "pw123")
	if cookie != auth.Digest("alice", "pw123") {
		t.Fatalf("cookie = %q, want the credential digest", cookie)
	}
	assertBody(t, a.do(t, http.MethodGet, "/blog", nil, cookie), http.StatusOK, "Latest posts")

	// already logged in: signup and login pages bounce to the front page
	assertRedirect(t, a.do(t, http.MethodGet, "/blog/signup", nil, cookie), "/blog")
	assertRedirect(t, a.do(t, http.MethodGet, "/blog/login", nil, cookie), "/blog")

	if ev := a.events.Events(); len(ev) != 1 || ev[0].Type != events.UserSignedUp {
		t.Fatalf("unexpected events %+v", ev)
	}
}

func TestSignupValidation(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice", "pw123")

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"short username", url.Values{"username": {"al"}, "password": {"pw123"}, "verify": {"pw123"}},
			"Username must have 3-20 alphanumeric characters"},
		{"taken username", url.Values{"username": {"alice"}, "password": {"pw123"}, "verify": {"pw123"}},
			"Username has already been taken."},
		{"short password", url.Values{"username": {"bob"}, "password": {"pw"}, "verify": {"pw"}},
			"Password must have 3-20 characters"},
		{"mismatch", url.Values{"username": {"bob"}, "password": {"pw123"}, "verify": {"pw124"}},
			"Passwords don&#39;t match"},
		{"bad email", url.Values{"username": {"bob"}, "password": {"pw123"}, "verify": {"pw123"}, "email": {"bob"}},
			"That&#39;s not a valid email address"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/blog/signup", c.form, "")
			assertBody(t, rec, http.StatusBadRequest, c.want)
			if len(rec.Result().Cookies()) != 0 {
				t.Fatal("no cookie may be set on a rejected signup")
			}
		})
	}

	if _, err := a.store.FindUserByUsername(context.Background(), "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rejected signups must not create users: %v", err)
	}
}

func TestLoginAndLogout(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice", "pw123")

	rec := a.do(t, http.MethodPost, "/blog/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, "")
	assertBody(t, rec, http.StatusUnauthorized, "Invalid Login")

	rec = a.do(t, http.MethodPost, "/blog/login", url.Values{"username": {"nobody"}, "password": {"pw123"}}, "")
	assertBody(t, rec, http.StatusUnauthorized, "Invalid Login")

	rec = a.do(t, http.MethodPost, "/blog/login", url.Values{"username": {"alice"}, "password": {"pw123"}}, "")
	assertRedirect(t, rec, "/blog")
	cookie := sessionCookie(t, rec)
	if cookie != auth.IssueToken("alice", "pw123") {
		t.Fatalf("login cookie = %q", cookie)
	}

	rec = a.do(t, http.MethodPost, "/blog/logout", nil, cookie)
	assertRedirect(t, rec, "/blog/login")
	if got := sessionCookie(t, rec); got != "" {
		t.Fatalf("logout should clear the cookie, got %q", got)
	}
}

func TestLoginWithBcryptDigest(t *testing.T) {
	a := newTestApp(t)
	d, _ := auth.NewDigester(auth.SchemeBcrypt, 4)
	digest, err := d.Digest("carol", "pw123")
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if _, err := a.store.CreateUser(context.Background(), "carol", digest); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := a.do(t, http.MethodPost, "/blog/login", url.Values{"username": {"carol"}, "password": {"pw123"}}, "")
	assertRedirect(t, rec, "/blog")
	cookie := sessionCookie(t, rec)
	assertBody(t, a.do(t, http.MethodGet, "/blog", nil, cookie), http.StatusOK, "Latest posts")
}

func TestNewPostAndShow(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice", "pw123")

	rec := a.do(t, http.MethodPost, "/blog/newpost", url.Values{"subject": {"Hello"}}, alice)
	assertBody(t, rec, http.StatusBadRequest, "We need both a title and a blog in order to publish this entry.")

	id := a.newPost(t, alice, "Hello", "World")
	rec = a.do(t, http.MethodGet, postPath(id, ""), nil, alice)
	assertBody(t, rec, http.StatusOK, "World")
	if !strings.Contains(rec.Body.String(), postPath(id, "/edit")) {
		t.Fatal("author should see the edit link")
	}

	assertBody(t, a.do(t, http.MethodGet, "/blog", nil, alice), http.StatusOK, "Hello")
	assertBody(t, a.do(t, http.MethodGet, "/blog/9999", nil, alice), http.StatusNotFound, "does not exist")
}

func TestNonAuthorCannotEditOrDelete(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice", "pw123")
	bob := a.signup(t, "bob", "pw456")
	id := a.newPost(t, alice, "Hello", "World")

	assertBody(t, a.do(t, http.MethodGet, postPath(id, "/edit"), nil, bob), http.StatusForbidden, "You can only edit your own posts.")
	rec := a.do(t, http.MethodPost, postPath(id, "/edit"), url.Values{"subject": {"Hacked"}, "content": {"pwned"}}, bob)
	assertBody(t, rec, http.StatusForbidden, "You can only edit your own posts.")

	assertBody(t, a.do(t, http.MethodGet, postPath(id, "/delete"), nil, bob), http.StatusForbidden, "You can only delete your own posts.")
	rec = a.do(t, http.MethodPost, postPath(id, "/delete"), nil, bob)
	assertBody(t, rec, http.StatusForbidden, "You can only delete your own posts.")

	p, err := a.store.GetPostByID(context.Background(), id)
	if err != nil {
		t.Fatalf("post should survive: %v", err)
	}
	if p.Title != "Hello" || p.Body != "World" {
		t.Fatalf("post was modified: %+v", p)
	}
}

func TestAuthorEdits(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice", "pw123")
	id := a.newPost(t, alice, "Hello", "World")

	assertBody(t, a.do(t, http.MethodGet, postPath(id, "/edit"), nil, alice), http.StatusOK, "Update")

	rec := a.do(t, http.MethodPost, postPath(id, "/edit"), url.Values{"subject": {"Hello"}, "content": {" "}}, alice)
	assertBody(t, rec, http.StatusBadRequest, "We need both a title and a blog")

	rec = a.do(t, http.MethodPost, postPath(id, "/edit"), url.Values{"subject": {"Hi"}, "content": {"There"}}, alice)
	assertRedirect(t, rec, postPath(id, ""))

	p, _ := a.store.GetPostByID(context.Background(), id)
	if p.Title != "Hi" || p.Body != "There" {
		t.Fatalf("edit not applied: %+v", p)
	}
}

func TestDeleteCascades(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	alice := a.signup(t, "alice", "pw123")
	id := a.newPost(t, alice, "Hello", "World")

	for _, name := range []string{"bob", "carol", "dave"} {
		c := a.signup(t, name, "pw456")
		assertRedirect(t, a.do(t, http.MethodPost, postPath(id, "/comment"), url.Values{"comment": {"hi from " + name}}, c), postPath(id, ""))
		assertRedirect(t, a.do(t, http.MethodPost, postPath(id, "/vote/like"), nil, c), postPath(id, ""))
	}
	if got := a.score(t, id); got != 3 {
		t.Fatalf("score before delete = %d", got)
	}

	assertBody(t, a.do(t, http.MethodGet, postPath(id, "/delete"), nil, alice), http.StatusOK, "Delete this post")
	assertRedirect(t, a.do(t, http.MethodPost, postPath(id, "/delete"), nil, alice), "/blog")

	if _, err := a.store.GetPostByID(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("post still present: %v", err)
	}
	comments, err := a.store.CommentsByPost(ctx, id)
	if err != nil || len(comments) != 0 {
		t.Fatalf("comments left behind: %d, %v", len(comments), err)
	}
	if got := a.score(t, id); got != 0 {
		t.Fatalf("likes left behind, score %d", got)
	}
	assertBody(t, a.do(t, http.MethodGet, postPath(id, ""), nil, alice), http.StatusNotFound, "does not exist")
}

func TestVoteToggle(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	alice := a.signup(t, "alice", "pw123")
	bob := a.signup(t, "bob", "pw456")
	id := a.newPost(t, alice, "Hello", "World")
	bobUser, _ := a.store.FindUserByUsername(ctx, "bob")

	vote := func(action string) {
		t.Helper()
		assertRedirect(t, a.do(t, http.MethodPost, postPath(id, "/vote/"+action), nil, bob), postPath(id, ""))
	}

	vote("like")
	vote("like")
	if _, err := a.store.FindLike(ctx, id, bobUser.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("like, like should clear the vote: %v", err)
	}

	vote("like")
	vote("dislike")
	l, err := a.store.FindLike(ctx, id, bobUser.ID)
	if err != nil || l.Status {
		t.Fatalf("like, dislike should leave one downvote: %+v, %v", l, err)
	}
	if got := a.score(t, id); got != -1 {
		t.Fatalf("score = %d, want -1", got)
	}

	rec := a.do(t, http.MethodGet, postPath(id, ""), nil, bob)
	assertBody(t, rec, http.StatusOK, `action="`+postPath(id, "/vote/dislike")+`" class="inline"><button type="submit" class="active"`)

	// GET is not a vote
	if rec := a.do(t, http.MethodGet, postPath(id, "/vote/like"), nil, bob); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET vote: status %d", rec.Code)
	}
}

func TestSelfVoteRejected(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	alice := a.signup(t, "alice", "pw123")
	id := a.newPost(t, alice, "Hello", "World")
	aliceUser, _ := a.store.FindUserByUsername(ctx, "alice")

	for _, action := range []string{"like", "dislike"} {
		rec := a.do(t, http.MethodPost, postPath(id, "/vote/"+action), nil, alice)
		assertBody(t, rec, http.StatusForbidden, "You cannot vote on your own post.")
	}
	if _, err := a.store.FindLike(ctx, id, aliceUser.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("self vote created a like row: %v", err)
	}
	if got := a.score(t, id); got != 0 {
		t.Fatalf("score = %d", got)
	}
}

func TestComments(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice", "pw123")
	bob := a.signup(t, "bob", "pw456")
	id := a.newPost(t, alice, "Hello", "World")

	rec := a.do(t, http.MethodPost, postPath(id, "/comment"), url.Values{"comment": {"   "}}, bob)
	assertRedirect(t, rec, postPath(id, "?error=empty_comment"))
	assertBody(t, a.do(t, http.MethodGet, postPath(id, "?error=empty_comment"), nil, bob), http.StatusOK, "Comments cannot be empty.")

	a.do(t, http.MethodPost, postPath(id, "/comment"), url.Values{"comment": {"older comment"}}, bob)
	a.do(t, http.MethodPost, postPath(id, "/comment"), url.Values{"comment": {"newer comment"}}, alice)

	body := a.do(t, http.MethodGet, postPath(id, ""), nil, bob).Body.String()
	newer, older := strings.Index(body, "newer comment"), strings.Index(body, "older comment")
	if newer < 0 || older < 0 || newer > older {
		t.Fatalf("comments should be listed newest first: %s", body)
	}
	if rec := a.do(t, http.MethodPost, "/blog/9999/comment", url.Values{"comment": {"x"}}, bob); rec.Code != http.StatusNotFound {
		t.Fatalf("comment on missing post: status %d", rec.Code)
	}
}

// alice posts, bob dislikes, alice tries to vote on her own post.
func TestAliceBobScenario(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	alice := a.signup(t, "alice", "pw123")
	id := a.newPost(t, alice, "Hello", "World")
	bob := a.signup(t, "bob", "pw456")

	assertRedirect(t, a.do(t, http.MethodPost, postPath(id, "/vote/dislike"), nil, bob), postPath(id, ""))
	if got := a.score(t, id); got != -1 {
		t.Fatalf("score = %d, want -1", got)
	}
	comments, err := a.store.CommentsByPost(ctx, id)
	if err != nil || len(comments) != 0 {
		t.Fatalf("expected no comments, got %d, %v", len(comments), err)
	}

	rec := a.do(t, http.MethodPost, postPath(id, "/vote/like"), nil, alice)
	assertBody(t, rec, http.StatusForbidden, "You cannot vote on your own post.")
	if !strings.Contains(rec.Body.String(), `<span id="score">-1</span>`) {
		t.Fatalf("score should still read -1: %s", rec.Body.String())
	}
	if got := a.score(t, id); got != -1 {
		t.Fatalf("score after self vote = %d, want -1", got)
	}

	var types []events.Type
	for _, e := range a.events.Events() {
		types = append(types, e.Type)
	}
	want := []events.Type{events.UserSignedUp, events.PostCreated, events.UserSignedUp, events.VoteCast}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
	last := a.events.Events()[3]
	if last.Vote != models.Downvoted.String() || last.Score == nil || *last.Score != -1 {
		t.Fatalf("unexpected vote event %+v", last)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice", "pw123")
	a.events.Err = errors.New("broker down")
	a.newPost(t, alice, "Hello", "World")
}

//
// --- Failure paths ---
//

// brokenStore fails or panics on the front page query.
type brokenStore struct {
	store.Store
	panic bool
}

func (b *brokenStore) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if b.panic {
		panic("boom")
	}
	return nil, errors.New("mock store recent posts failed")
}

func TestStoreErrorsRenderServerError(t *testing.T) {
	for _, panics := range []bool{false, true} {
		base := newTestApp(t)
		cookie := base.signup(t, "alice", "pw123")

		log, hook := logtest.NewNullLogger()
		h := routesFor(&brokenStore{Store: base.store, panic: panics}, nil, log)

		req := httptest.NewRequest(http.MethodGet, "/blog", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookie})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assertBody(t, rec, http.StatusInternalServerError, "Something went wrong")
		assertRequestLogged(t, hook, "/blog", http.StatusInternalServerError)
	}
}

func routesFor(st store.Store, pub events.Publisher, log logrus.FieldLogger) http.Handler {
	digester, _ := auth.NewDigester(auth.SchemeSHA256, 0)
	return New(st, auth.NewManager(st), digester, pub, log).Routes(false)
}

func assertRequestLogged(t *testing.T, hook *logtest.Hook, route string, status int) {
	t.Helper()
	for _, e := range hook.AllEntries() {
		if e.Message == "request" && e.Data["route"] == route && e.Data["status"] == status {
			if e.Data["request_id"] == "" {
				t.Fatal("request log line without a request id")
			}
			return
		}
	}
	t.Fatalf("no request log line for %s with status %d", route, status)
}

func TestUnmatchedRequestsRunMiddleware(t *testing.T) {
	base := newTestApp(t)
	cookie := base.signup(t, "alice", "pw123")
	log, hook := logtest.NewNullLogger()
	h := routesFor(base.store, nil, log)

	send := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookie})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodGet, "/nope")
	assertBody(t, rec, http.StatusNotFound, `<span class="user">alice</span>`)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("404 response without X-Request-ID")
	}

	rec = send(http.MethodGet, "/blog/1/vote/like")
	assertBody(t, rec, http.StatusMethodNotAllowed, "not available")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("405 response without X-Request-ID")
	}

	assertRequestLogged(t, hook, "unmatched", http.StatusNotFound)
	assertRequestLogged(t, hook, "unmatched", http.StatusMethodNotAllowed)
}

// stalledWriter accepts nothing until release is closed.
type stalledWriter struct{ release chan struct{} }

func (s stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (stalledWriter) Close() error { return nil }

func TestStalledBrokerDoesNotDelayRequests(t *testing.T) {
	base := newTestApp(t)
	w := stalledWriter{release: make(chan struct{})}
	pub := events.NewPublisherWithWriter(w, time.Minute, 0, nil)
	defer func() {
		close(w.release)
		pub.Close()
	}()
	a := &testApp{
		h:      routesFor(base.store, pub, logger.NewWithOutput(io.Discard, "error", "json")),
		store:  base.store,
		events: base.events,
	}

	serve := func(path string, form url.Values, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookie})
		}
		rec := httptest.NewRecorder()
		a.h.ServeHTTP(rec, req)
		return rec
	}

	codes := make(chan int, 2)
	go func() {
		rec := serve("/blog/signup", url.Values{"username": {"alice"}, "password": {"pw123"}, "verify": {"pw123"}}, "")
		codes <- rec.Code
		codes <- serve("/blog/newpost", url.Values{"subject": {"Hello"}, "content": {"World"}}, auth.Digest("alice", "pw123")).Code
	}()
	for _, step := range []string{"signup", "newpost"} {
		select {
		case code := <-codes:
			if code != http.StatusSeeOther {
				t.Fatalf("%s: status %d", step, code)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s waited on the event broker", step)
		}
	}
}

// vanishingStore deletes the post right before updating it, as a concurrent
// delete would.
type vanishingStore struct{ store.Store }

func (v vanishingStore) UpdatePost(ctx context.Context, id int64, title, body string) (*models.Post, error) {
	if err := v.Store.DeletePost(ctx, id); err != nil {
		return nil, err
	}
	return v.Store.UpdatePost(ctx, id, title, body)
}

func TestEditOfDeletedPostIsNotFound(t *testing.T) {
	base := newTestApp(t)
	alice := base.signup(t, "alice", "pw123")
	id := base.newPost(t, alice, "Hello", "World")

	a := &testApp{
		h:      routesFor(vanishingStore{base.store}, nil, logger.NewWithOutput(io.Discard, "error", "json")),
		store:  base.store,
		events: base.events,
	}
	rec := a.do(t, http.MethodPost, postPath(id, "/edit"), url.Values{"subject": {"Hi"}, "content": {"There"}}, alice)
	assertBody(t, rec, http.StatusNotFound, "does not exist")
}

func TestRequestIDHeader(t *testing.T) {
	a := newTestApp(t)
	rec := a.do(t, http.MethodGet, "/", nil, "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated X-Request-ID")
	}
}
