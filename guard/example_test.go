package guard_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jrsteele09/go-rolegate/guard"
	"github.com/jrsteele09/go-rolegate/identity"
	"github.com/jrsteele09/go-rolegate/identity/providerfake"
	"github.com/jrsteele09/go-rolegate/roles"
	fakerolerepo "github.com/jrsteele09/go-rolegate/rolestore/repofake"
	"github.com/jrsteele09/go-rolegate/session"
	"github.com/rs/zerolog"
)

func ExampleRequireRoles() {
	ctx := context.Background()
	provider := providerfake.NewFakeProvider()
	store := fakerolerepo.NewFakeRoleRepo()
	ctrl, err := session.NewController(provider, store, session.WithLogger(zerolog.Nop()))
	if err != nil {
		panic(err)
	}
	defer ctrl.Close()
	if err := ctrl.Start(ctx); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	teachersOnly := guard.RequireRoles(ctrl, guard.Redirects{}, roles.Teacher)
	mux.HandleFunc("/teacher/dashboard", teachersOnly(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "gradebook")
	}))

	get := func() string {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teacher/dashboard", nil))
		if loc := rec.Header().Get("Location"); loc != "" {
			return fmt.Sprintf("%d -> %s", rec.Code, loc)
		}
		return fmt.Sprintf("%d %s", rec.Code, rec.Body.String())
	}
	fmt.Println(get())

	creds := identity.Credentials{Email: "tara@example.com", Password: "secret1"}
	id, err := provider.AddAccount(creds, "Tara")
	if err != nil {
		panic(err)
	}
	if err := store.SetRole(ctx, id.ID, roles.Teacher); err != nil {
		panic(err)
	}
	if _, err := provider.SignIn(ctx, creds); err != nil {
		panic(err)
	}
	for ctrl.CurrentSnapshot().Pending() {
		time.Sleep(time.Millisecond)
	}
	fmt.Println(get())

	// Output:
	// 303 -> /login
	// 200 gradebook
}
