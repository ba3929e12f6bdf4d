package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"surf-market/internal/model"
	"surf-market/internal/repository"
	"surf-market/internal/service"
	"surf-market/internal/storetest"
)

// Wires the Postgres repositories over sqlmock so database errors reach the handlers.
func TestMalformedIDsAreNotFound(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "postgres")

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	listings := repository.NewListingRepository(db)
	users := repository.NewUserRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	images := storetest.NewImages()
	geocoder := &storetest.Geocoder{}
	auth := service.NewAuthService(users, &storetest.Mailer{}, testSecret, time.Hour, logger)

	e := &testEnv{router: NewRouter(
		RouterConfig{Logger: logger, SessionSecret: "session-secret", JWTSecret: testSecret},
		&ListingHandler{
			Listings: service.NewListingService(listings, favorites, images, geocoder, logger),
			Logger:   logger,
		},
		&ProfileHandler{Profiles: service.NewProfileService(users, listings, images, geocoder, logger), Logger: logger},
		&FavoriteHandler{Favorites: service.NewFavoriteService(favorites, listings), Logger: logger},
	)}

	tok, _, err := auth.IssueToken(&model.User{ID: "4f1c2b7e-0d7a-4c55-9a51-2f6a1d9e3b10", Role: model.RoleUser})
	require.NoError(t, err)

	badUUID := func(v string) error {
		return &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "` + v + `"`}
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID("abc"))
	w := e.do("GET", "/api/listings/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"listing not found"}`, w.Body.String())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID("abc"))
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/users/abc", nil).Code)

	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID("abc"))
	assert.Equal(t, http.StatusNotFound, e.do("POST", "/api/favorites/abc", nil, bearer(tok)).Code)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).WillReturnError(badUUID("abc"))
	assert.Equal(t, http.StatusOK, e.do("DELETE", "/api/favorites/abc", nil, bearer(tok)).Code)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
