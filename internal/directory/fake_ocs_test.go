package directory

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
)

const (
	fakeServiceUser = "svc"
	fakeServicePass = "svc-secret" //nolint:gosec // Test secret, not production
)

type fakeUser struct {
	id          string
	password    string
	enabled     bool
	displayName string
	email       string
	groups      []string
}

type recordedRequest struct {
	method    string
	path      string
	authUser  string
	ocsHeader string
	requestID string
	form      url.Values
}

// fakeOCS is an in-memory provisioning API with WebDAV listings, answering
// the way an ownCloud/Nextcloud server does.
type fakeOCS struct {
	mu       sync.Mutex
	users    []*fakeUser
	groups   []string
	requests []recordedRequest
	dav      map[string]string // path -> multistatus body
}

func newFakeOCS(t *testing.T) (*fakeOCS, *httptest.Server) {
	t.Helper()
	f := &fakeOCS{dav: map[string]string{}}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeOCS) addUser(u *fakeUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	for _, g := range u.groups {
		if !slices.Contains(f.groups, g) {
			f.groups = append(f.groups, g)
		}
	}
}

func (f *fakeOCS) lastRequest() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeOCS) requestsMatching(method, prefix string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.method == method && strings.HasPrefix(r.path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// find matches case-insensitively like the real servers do.
func (f *fakeOCS) find(id string) *fakeUser {
	for _, u := range f.users {
		if strings.EqualFold(u.id, id) {
			return u
		}
	}
	return nil
}

// authorized refuses disabled accounts even with the right password, as the
// real servers do.
func (f *fakeOCS) authorized(r *http.Request) (string, bool) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return "", false
	}
	if user == fakeServiceUser && pass == fakeServicePass {
		return user, true
	}
	for _, u := range f.users {
		if u.id == user && u.password == pass && pass != "" && u.enabled {
			return user, true
		}
	}
	return user, false
}

func (f *fakeOCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))
	authUser, ok := f.authorized(r)
	f.requests = append(f.requests, recordedRequest{
		method:    r.Method,
		path:      r.URL.Path,
		authUser:  authUser,
		ocsHeader: r.Header.Get("OCS-APIRequest"),
		requestID: r.Header.Get("X-Request-ID"),
		form:      form,
	})

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if strings.HasPrefix(r.URL.Path, davBasePath) {
		f.serveDAV(w, r)
		return
	}

	endpoint, found := strings.CutPrefix(r.URL.Path, ocsBasePath)
	if !found {
		http.NotFound(w, r)
		return
	}
	f.serveOCS(w, r.Method, strings.Split(endpoint, "/"), form)
}

func (f *fakeOCS) serveDAV(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PROPFIND" || r.Header.Get("Depth") != "1" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	body, ok := f.dav[strings.TrimSuffix(r.URL.Path, "/")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = io.WriteString(w, body)
}

func (f *fakeOCS) serveOCS(w http.ResponseWriter, method string, seg []string, form url.Values) {
	switch {
	case len(seg) == 1 && seg[0] == "users" && method == http.MethodGet:
		ids := make([]string, 0, len(f.users))
		for _, u := range f.users {
			ids = append(ids, u.id)
		}
		writeOCS(w, 100, elements("users", ids))

	case len(seg) == 1 && seg[0] == "users" && method == http.MethodPost:
		id := form.Get("userid")
		if f.find(id) != nil {
			writeOCS(w, 102, "")
			return
		}
		groups := form["groups[]"]
		for _, g := range groups {
			if !slices.Contains(f.groups, g) {
				writeOCS(w, 104, "")
				return
			}
		}
		f.users = append(f.users, &fakeUser{
			id:          id,
			password:    form.Get("password"),
			enabled:     true,
			displayName: form.Get("displayName"),
			email:       form.Get("email"),
			groups:      groups,
		})
		writeOCS(w, 100, "<id>"+esc(id)+"</id>")

	case len(seg) == 2 && seg[0] == "users":
		u := f.find(seg[1])
		if u == nil {
			writeOCS(w, 998, "")
			return
		}
		switch method {
		case http.MethodGet:
			writeOCS(w, 100, userXML(u))
		case http.MethodPut:
			switch form.Get("key") {
			case "displayname":
				u.displayName = form.Get("value")
			case "email":
				u.email = form.Get("value")
			case "password":
				u.password = form.Get("value")
			default:
				writeOCS(w, 103, "")
				return
			}
			writeOCS(w, 100, "")
		case http.MethodDelete:
			f.users = slices.DeleteFunc(f.users, func(x *fakeUser) bool { return x == u })
			writeOCS(w, 100, "")
		}

	case len(seg) == 3 && seg[0] == "users" && (seg[2] == "enable" || seg[2] == "disable"):
		u := f.find(seg[1])
		if u == nil {
			writeOCS(w, 101, "")
			return
		}
		u.enabled = seg[2] == "enable"
		writeOCS(w, 100, "")

	case len(seg) == 3 && seg[0] == "users" && seg[2] == "groups":
		u := f.find(seg[1])
		switch method {
		case http.MethodGet:
			if u == nil {
				writeOCS(w, 998, "")
				return
			}
			writeOCS(w, 100, elements("groups", u.groups))
		case http.MethodPost:
			g := form.Get("groupid")
			if !slices.Contains(f.groups, g) {
				writeOCS(w, 102, "")
				return
			}
			if u == nil {
				writeOCS(w, 103, "")
				return
			}
			if !slices.Contains(u.groups, g) {
				u.groups = append(u.groups, g)
			}
			writeOCS(w, 100, "")
		case http.MethodDelete:
			if u == nil {
				writeOCS(w, 103, "")
				return
			}
			g := form.Get("groupid")
			u.groups = slices.DeleteFunc(u.groups, func(x string) bool { return x == g })
			writeOCS(w, 100, "")
		}

	case len(seg) == 1 && seg[0] == "groups" && method == http.MethodGet:
		writeOCS(w, 100, elements("groups", f.groups))

	case len(seg) == 1 && seg[0] == "groups" && method == http.MethodPost:
		g := form.Get("groupid")
		if g == "" {
			writeOCS(w, 101, "")
			return
		}
		if slices.Contains(f.groups, g) {
			writeOCS(w, 102, "")
			return
		}
		f.groups = append(f.groups, g)
		writeOCS(w, 100, "")

	case len(seg) == 2 && seg[0] == "groups":
		g := seg[1]
		if !slices.Contains(f.groups, g) {
			if method == http.MethodDelete {
				writeOCS(w, 101, "")
			} else {
				writeOCS(w, 998, "")
			}
			return
		}
		switch method {
		case http.MethodGet:
			var members []string
			for _, u := range f.users {
				if slices.Contains(u.groups, g) {
					members = append(members, u.id)
				}
			}
			writeOCS(w, 100, elements("users", members))
		case http.MethodDelete:
			f.groups = slices.DeleteFunc(f.groups, func(x string) bool { return x == g })
			for _, u := range f.users {
				u.groups = slices.DeleteFunc(u.groups, func(x string) bool { return x == g })
			}
			writeOCS(w, 100, "")
		}

	default:
		writeOCS(w, 998, "")
	}
}

func userXML(u *fakeUser) string {
	enabled := ""
	if u.enabled {
		enabled = "1"
	}
	return fmt.Sprintf(
		"<id>%s</id><enabled>%s</enabled><email>%s</email><displayname>%s</displayname>%s",
		esc(u.id), enabled, esc(u.email), esc(u.displayName), elements("groups", u.groups),
	)
}

func elements(name string, values []string) string {
	var b strings.Builder
	b.WriteString("<" + name + ">")
	for _, v := range values {
		b.WriteString("<element>" + esc(v) + "</element>")
	}
	b.WriteString("</" + name + ">")
	return b.String()
}

func writeOCS(w http.ResponseWriter, code int, data string) {
	status := "ok"
	if code != 100 {
		status = "failure"
	}
	w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w,
		`<?xml version="1.0"?><ocs><meta><status>%s</status><statuscode>%d</statuscode><message/></meta><data>%s</data></ocs>`,
		status, code, data,
	)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
