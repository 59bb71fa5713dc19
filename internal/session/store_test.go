package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/frahmantamala/employee-console/db"
	"github.com/frahmantamala/employee-console/internal/session"
	sessionPostgres "github.com/frahmantamala/employee-console/internal/session/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

type layout struct {
	Wide bool     `json:"wide"`
	Tabs []string `json:"tabs"`
}

var layoutKey = session.NewKey("layout", layout{Tabs: []string{"home"}})

func openStateDB() *sqlx.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := gdb.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	goose.SetBaseFS(db.Migrations)
	Expect(goose.SetDialect("sqlite3")).To(Succeed())
	Expect(goose.Up(sqlDB, db.MigrationsDir)).To(Succeed())

	return sqlx.NewDb(sqlDB, "sqlite3")
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		sqldb *sqlx.DB
		repo  session.RepositoryAPI
		store *session.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		sqldb = openStateDB()
		repo = sessionPostgres.NewStateRepository(sqldb)
		store = session.NewStore(repo, "user-1")
	})

	AfterEach(func() {
		Expect(sqldb.Close()).To(Succeed())
	})

	It("refuses writes before hydrate", func() {
		err := session.Set(ctx, store, session.SidebarPinned, true)
		Expect(err).To(MatchError(session.ErrNotHydrated))
	})

	It("returns defaults for keys never written", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(session.Get(store, session.SidebarPinned)).To(BeFalse())

		v, found := session.Lookup(store, layoutKey)
		Expect(found).To(BeFalse())
		Expect(v.Tabs).To(Equal([]string{"home"}))
	})

	It("persists typed values across hydrations", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(session.Set(ctx, store, session.SidebarPinned, true)).To(Succeed())
		Expect(session.Set(ctx, store, layoutKey, layout{Wide: true, Tabs: []string{"a", "b"}})).To(Succeed())

		fresh := session.NewStore(repo, "user-1")
		Expect(fresh.Hydrate(ctx)).To(Succeed())
		Expect(session.Get(fresh, session.SidebarPinned)).To(BeTrue())
		Expect(session.Get(fresh, layoutKey)).To(Equal(layout{Wide: true, Tabs: []string{"a", "b"}}))
	})

	It("overwrites an existing value", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(session.Set(ctx, store, session.SidebarPinned, true)).To(Succeed())
		Expect(session.Set(ctx, store, session.SidebarPinned, false)).To(Succeed())

		fresh := session.NewStore(repo, "user-1")
		Expect(fresh.Hydrate(ctx)).To(Succeed())
		v, found := session.Lookup(fresh, session.SidebarPinned)
		Expect(found).To(BeTrue())
		Expect(v).To(BeFalse())
	})

	It("keeps scopes apart", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(session.Set(ctx, store, session.SidebarPinned, true)).To(Succeed())

		other := session.NewStore(repo, "user-2")
		Expect(other.Hydrate(ctx)).To(Succeed())
		Expect(session.Get(other, session.SidebarPinned)).To(BeFalse())
	})

	It("deletes single keys and clears the scope", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(session.Set(ctx, store, session.SidebarPinned, true)).To(Succeed())
		Expect(session.Set(ctx, store, layoutKey, layout{Wide: true})).To(Succeed())

		Expect(store.Delete(ctx, session.SidebarPinned.Name())).To(Succeed())
		_, found := store.Raw(session.SidebarPinned.Name())
		Expect(found).To(BeFalse())

		Expect(store.Clear(ctx)).To(Succeed())
		Expect(store.Snapshot()).To(BeEmpty())

		fresh := session.NewStore(repo, "user-1")
		Expect(fresh.Hydrate(ctx)).To(Succeed())
		Expect(fresh.Snapshot()).To(BeEmpty())
	})

	It("falls back to the default when a stored value no longer decodes", func() {
		Expect(store.Hydrate(ctx)).To(Succeed())
		Expect(store.SetRaw(ctx, session.SidebarPinned.Name(), json.RawMessage(`"yes"`))).To(Succeed())
		v, found := session.Lookup(store, session.SidebarPinned)
		Expect(found).To(BeFalse())
		Expect(v).To(BeFalse())
	})

	It("checks raw values against the key type", func() {
		Expect(layoutKey.Check(json.RawMessage(`{"wide":true}`))).To(Succeed())
		Expect(layoutKey.Check(json.RawMessage(`[1,2]`))).NotTo(Succeed())
	})
})
