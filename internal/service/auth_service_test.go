package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-market-auth/internal/idgen"
	"go-market-auth/internal/model"
	"go-market-auth/internal/repository"
	"go-market-auth/pkg/apierror"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("buyer gets identity, one profile and tokens", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		pair, err := svc.Register(ctx, buyerRequest("alice"))
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, model.RoleBuyer, pair.User.Role)
		assert.Equal(t, model.StatusApproved, pair.User.ApprovalStatus)
		assert.Regexp(t, `^ND[A-HJ-NP-Z2-9]{8}$`, pair.User.ID)

		identity, err := store.FindByID(ctx, pair.User.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", identity.PasswordHash)

		profile, err := store.FindProfile(ctx, pair.User.ID, model.RoleBuyer)
		require.NoError(t, err)
		require.True(t, profile.Matches(model.RoleBuyer))
		assert.Regexp(t, `^NM[A-HJ-NP-Z2-9]{8}$`, profile.ID())

		stats, err := store.CountStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Total)
	})

	t.Run("storefront starts pending", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		pair, err := svc.Register(ctx, storefrontRequest("stall"))
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, pair.User.ApprovalStatus)
	})

	t.Run("shipper without plate persists nothing", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		req := buyerRequest("rider")
		req.Role = "shipper"

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeMissingField)
		assert.Contains(t, apiErr.Fields, "vehicle_plate")

		exists, err := store.ExistsByUsername(ctx, "rider")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("storefront with unknown market persists nothing", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		req := storefrontRequest("ghost")
		req.MarketCode = "NOWHERE"

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeForeignKeyMissing)
		assert.Contains(t, apiErr.Fields, "market_code")

		stats, err := store.CountStats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
	})

	t.Run("unknown manager code is a missing reference", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		req := storefrontRequest("orphan")
		code := "QLNOTREAL1"
		req.ManagerCode = &code

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeForeignKeyMissing)
		assert.Contains(t, apiErr.Fields, "manager_code")
	})

	t.Run("unknown role", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		req := buyerRequest("who")
		req.Role = "admin"

		_, err := svc.Register(ctx, req)
		requireAPIError(t, err, http.StatusBadRequest, apierror.CodeRoleInvalid)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		_, err := svc.Register(ctx, buyerRequest("taken"))
		require.NoError(t, err)

		_, err = svc.Register(ctx, buyerRequest("Taken"))
		requireAPIError(t, err, http.StatusConflict, apierror.CodeConflict)
	})

	t.Run("concurrent identical usernames admit exactly one", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Register(ctx, buyerRequest("racer"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			requireAPIError(t, err, http.StatusConflict, apierror.CodeConflict)
		}
		assert.Equal(t, 1, succeeded)

		stats, err := store.CountStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Total)
	})
}

func TestAuthService_RegisterIDCollisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("regenerates ids after a collision", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrIDCollision).Twice()
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		svc := newTestAuthService(t, store)
		pair, err := svc.Register(ctx, buyerRequest("alice"))
		require.NoError(t, err)
		assert.Equal(t, "alice", pair.User.Username)

		store.AssertNumberOfCalls(t, "CreateWithProfile", 3)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrIDCollision)

		svc := newTestAuthService(t, store)
		_, err := svc.Register(ctx, buyerRequest("alice"))
		requireAPIError(t, err, http.StatusInternalServerError, apierror.CodeInternal)

		store.AssertNumberOfCalls(t, "CreateWithProfile", maxIDAttempts)
	})

	t.Run("every attempt uses fresh ids", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		seen := make(map[string]struct{})
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				seen[args.Get(1).(model.Identity).ID] = struct{}{}
			}).
			Return(model.ErrIDCollision)

		svc := newTestAuthService(t, store)
		_, err := svc.Register(ctx, buyerRequest("alice"))
		require.Error(t, err)
		assert.Len(t, seen, maxIDAttempts)
	})

	t.Run("unclassified store failure is internal", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		svc := newTestAuthService(t, store)
		_, err := svc.Register(ctx, buyerRequest("alice"))
		apiErr := requireAPIError(t, err, http.StatusInternalServerError, apierror.CodeInternal)
		assert.NotContains(t, apiErr.Message, "connection refused")
	})

	t.Run("username race lost at insert is a conflict", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrUsernameTaken)

		svc := newTestAuthService(t, store)
		_, err := svc.Register(ctx, buyerRequest("alice"))
		requireAPIError(t, err, http.StatusConflict, apierror.CodeConflict)
	})

	t.Run("entropy failure is internal", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)

		svc, err := NewAuthService(store, NewPasswordHasher(bcrypt.MinCost), newTestTokens(t), idgen.NewRandomGeneratorFrom(failingReader{}), discardLogger())
		require.NoError(t, err)

		_, err = svc.Register(ctx, buyerRequest("alice"))
		requireAPIError(t, err, http.StatusInternalServerError, apierror.CodeInternal)
		store.AssertNotCalled(t, "CreateWithProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("value wider than a column is a validation error", func(t *testing.T) {
		store := &repository.MockIdentityStore{}
		store.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
		store.On("CreateWithProfile", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrValueTooLong)

		svc := newTestAuthService(t, store)
		_, err := svc.Register(ctx, buyerRequest("alice"))
		requireAPIError(t, err, http.StatusBadRequest, apierror.CodeValidation)
		store.AssertNumberOfCalls(t, "CreateWithProfile", 1)
	})
}

func TestAuthService_RegisterTrimsBeforeValidating(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("padded short plate is rejected", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		req := buyerRequest("rider")
		req.Role = "shipper"
		req.VehiclePlate = "  AB  "

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeValidation)
		assert.Contains(t, apiErr.Fields, "vehicle_plate")

		exists, err := store.ExistsByUsername(ctx, "rider")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("padded one-letter storefront name is rejected", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		req := storefrontRequest("tiny")
		req.StorefrontName = "   X   "

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeValidation)
		assert.Contains(t, apiErr.Fields, "storefront_name")
	})

	t.Run("blank storefront name counts as missing", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())

		req := storefrontRequest("blank")
		req.StorefrontName = "    "

		_, err := svc.Register(ctx, req)
		apiErr := requireAPIError(t, err, http.StatusBadRequest, apierror.CodeMissingField)
		assert.Contains(t, apiErr.Fields, "storefront_name")
	})

	t.Run("stored values are the trimmed ones", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)

		req := storefrontRequest("padded")
		req.StorefrontName = "  Fresh Fish  "
		req.Location = " Row B "
		blank := "   "
		req.ManagerCode = &blank

		pair, err := svc.Register(ctx, req)
		require.NoError(t, err)

		profile, err := store.FindProfile(ctx, pair.User.ID, model.RoleStorefront)
		require.NoError(t, err)
		require.NotNil(t, profile.Storefront)
		assert.Equal(t, "Fresh Fish", profile.Storefront.Name)
		assert.Equal(t, "Row B", profile.Storefront.Location)
		assert.Nil(t, profile.Storefront.ManagerCode)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestAuthService(t, newMemoryStore())
	registered, err := svc.Register(ctx, buyerRequest("alice"))
	require.NoError(t, err)

	t.Run("access token names the registered identity", func(t *testing.T) {
		pair, err := svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "secret123"})
		require.NoError(t, err)

		claims, err := svc.Tokens().VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.Subject)
	})

	t.Run("username lookup ignores case", func(t *testing.T) {
		_, err := svc.Login(ctx, model.LoginRequest{Username: "ALICE", Password: "secret123"})
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, wrongPassword := svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "secret124"})
		_, unknownUser := svc.Login(ctx, model.LoginRequest{Username: "nobody", Password: "secret123"})

		first := requireAPIError(t, wrongPassword, http.StatusUnauthorized, apierror.CodeUnauthorized)
		second := requireAPIError(t, unknownUser, http.StatusUnauthorized, apierror.CodeUnauthorized)
		assert.Equal(t, first.Message, second.Message)
		assert.Equal(t, first.Details, second.Details)
	})

	t.Run("empty credentials fail validation", func(t *testing.T) {
		_, err := svc.Login(ctx, model.LoginRequest{})
		requireAPIError(t, err, http.StatusBadRequest, apierror.CodeValidation)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotates both tokens", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())
		first, err := svc.Register(ctx, buyerRequest("alice"))
		require.NoError(t, err)

		second, err := svc.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		claims, err := svc.Tokens().VerifyAccess(second.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, claims.Subject)
		assert.Equal(t, model.RoleBuyer, claims.Role)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())
		pair, err := svc.Register(ctx, buyerRequest("alice"))
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.AccessToken)
		requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeUnauthorized)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := newTestAuthService(t, newMemoryStore())
		_, err := svc.Refresh(ctx, "  ")
		requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeUnauthorized)
	})

	t.Run("identity removed since issue", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuthService(t, store)
		id := registerStorefront(t, svc, "stall")

		pair, err := svc.tokens.IssuePair(model.Identity{ID: id, Username: "stall", Role: model.RoleStorefront})
		require.NoError(t, err)

		deleted, err := store.DeleteIfStatus(ctx, id, model.StatusPending)
		require.NoError(t, err)
		require.True(t, deleted)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeUnauthorized)
	})
}

func TestAuthService_ResolvePrincipal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newMemoryStore()
	svc := newTestAuthService(t, store)
	pair, err := svc.Register(ctx, storefrontRequest("stall"))
	require.NoError(t, err)

	principal, err := svc.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, principal.ID)
	assert.Equal(t, model.StatusPending, principal.ApprovalStatus)

	// Status comes from the store, not from the token.
	_, err = store.UpdateApprovalStatus(ctx, pair.User.ID, model.StatusPending, model.StatusApproved)
	require.NoError(t, err)

	principal, err = svc.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, principal.ApprovalStatus)

	_, err = svc.ResolvePrincipal(ctx, pair.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeUnauthorized)
}

func TestAuthService_Me(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestAuthService(t, newMemoryStore())

	req := buyerRequest("rider")
	req.Role = "shipper"
	req.VehiclePlate = "59A-12345"
	pair, err := svc.Register(ctx, req)
	require.NoError(t, err)

	detail, err := svc.Me(ctx, pair.User.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Profile)
	require.NotNil(t, detail.Profile.Shipper)
	assert.Equal(t, "59A-12345", detail.Profile.Shipper.VehiclePlate)
	assert.Equal(t, pair.User.ID, detail.Profile.Shipper.IdentityID)

	_, err = svc.Me(ctx, "NDMISSING1")
	requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeUnauthorized)
}

func TestAuthService_EnsureManager(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newMemoryStore()
	svc := newTestAuthService(t, store)

	created, err := svc.EnsureManager(ctx, "boss", "manager123", "Market Boss")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureManager(ctx, "boss", "manager123", "Market Boss")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureManager(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	identity, err := store.FindByUsername(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, identity.Role)
	assert.Equal(t, model.StatusApproved, identity.ApprovalStatus)

	profile, err := store.FindProfile(ctx, identity.ID, model.RoleManager)
	require.NoError(t, err)
	assert.Regexp(t, `^QL`, profile.ID())

	_, err = svc.Login(ctx, model.LoginRequest{Username: "boss", Password: "manager123"})
	require.NoError(t, err)
}
