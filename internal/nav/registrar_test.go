package nav

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"clubgate/internal/nav/views"
)

func TestRegisterAddsAllEntries(t *testing.T) {
	table := newTestTable(t)
	registry := views.Default()
	entries := Materialize(materializeFixture(), registry)

	result := Register(table, entries, slog.New(slog.DiscardHandler))

	assert.ElementsMatch(t, []string{"/admin/club", "/admin/club/members", "/admin/system/user"}, result.AddedPaths)
	assert.Empty(t, result.FailedPaths)
}

func TestRegisterIsolatesFailingEntries(t *testing.T) {
	table := newTestTable(t)
	registry := views.Default()

	entries := []RouteEntry{
		{Path: "/admin/club", RouteID: "menu-1", Load: registry.Resolve("admin/club/ClubManage"), Meta: Meta{RequiresAuth: true}},
		{Path: "/bad/{unclosed", RouteID: "menu-2", Load: registry.Resolve("common/Home"), Meta: Meta{RequiresAuth: true}},
		{Path: "/admin/system/user", RouteID: "menu-3", Load: registry.Resolve("admin/system/UserManage"), Meta: Meta{RequiresAuth: true}},
	}

	result := Register(table, entries, slog.New(slog.DiscardHandler))

	assert.Equal(t, []string{"/admin/club", "/admin/system/user"}, result.AddedPaths)
	assert.Equal(t, []string{"/bad/{unclosed"}, result.FailedPaths)
	assert.True(t, table.Lookup("/admin/system/user").Dynamic, "entries after a failure still register")
}
