package validation

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

func ptr[T any](v T) *T { return &v }

func baseRequest(role string) model.RegisterRequest {
	return model.RegisterRequest{
		Username:    "jane.doe",
		Password:    "secret123",
		DisplayName: "Jane",
		Role:        role,
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("accepts a buyer without optional fields", func(t *testing.T) {
		role, apiErr := Register(baseRequest("buyer"))
		require.Nil(t, apiErr)
		assert.Equal(t, model.RoleBuyer, role)
	})

	t.Run("normalizes role case", func(t *testing.T) {
		req := baseRequest(" Shipper ")
		req.VehiclePlate = "59A-12345"

		role, apiErr := Register(req)
		require.Nil(t, apiErr)
		assert.Equal(t, model.RoleShipper, role)
	})

	t.Run("accepts a complete storefront", func(t *testing.T) {
		req := baseRequest("storefront")
		req.StorefrontName = "Fresh Fish"
		req.MarketCode = "CHOLON"
		req.Location = "Stall 12"
		req.ManagerCode = ptr("QLABCDEFGH")

		role, apiErr := Register(req)
		require.Nil(t, apiErr)
		assert.Equal(t, model.RoleStorefront, role)
	})

	roleCases := []struct {
		name string
		role string
	}{
		{name: "unknown role", role: "admin"},
		{name: "empty role", role: ""},
		{name: "manager is not self-registrable", role: "manager"},
	}
	for _, tc := range roleCases {
		t.Run(tc.name, func(t *testing.T) {
			_, apiErr := Register(baseRequest(tc.role))
			require.NotNil(t, apiErr)
			assert.Equal(t, apierror.CodeRoleInvalid, apiErr.Code)
			assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
			assert.Contains(t, apiErr.Fields, "role")
		})
	}

	t.Run("shipper without vehicle plate is a missing field", func(t *testing.T) {
		_, apiErr := Register(baseRequest("shipper"))
		require.NotNil(t, apiErr)
		assert.Equal(t, apierror.CodeMissingField, apiErr.Code)
		assert.Equal(t, map[string]string{"vehicle_plate": "This field is required"}, apiErr.Fields)
	})

	t.Run("storefront reports every missing field", func(t *testing.T) {
		req := baseRequest("storefront")
		req.Location = "   "

		_, apiErr := Register(req)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierror.CodeMissingField, apiErr.Code)
		assert.Len(t, apiErr.Fields, 3)
		assert.Contains(t, apiErr.Fields, "storefront_name")
		assert.Contains(t, apiErr.Fields, "market_code")
		assert.Contains(t, apiErr.Fields, "location")
	})

	t.Run("missing field wins over format errors", func(t *testing.T) {
		req := baseRequest("shipper")
		req.Password = "short"

		_, apiErr := Register(req)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierror.CodeMissingField, apiErr.Code)
	})

	t.Run("rejects fields that belong to another role", func(t *testing.T) {
		req := baseRequest("buyer")
		req.VehiclePlate = "59A-12345"
		req.MarketCode = "CHOLON"

		_, apiErr := Register(req)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierror.CodeValidation, apiErr.Code)
		assert.Contains(t, apiErr.Fields, "vehicle_plate")
		assert.Contains(t, apiErr.Fields, "market_code")
	})

	formatCases := []struct {
		name   string
		mutate func(req *model.RegisterRequest)
		field  string
	}{
		{name: "short username", mutate: func(req *model.RegisterRequest) { req.Username = "ab" }, field: "username"},
		{name: "username with spaces", mutate: func(req *model.RegisterRequest) { req.Username = "jane doe" }, field: "username"},
		{name: "short password", mutate: func(req *model.RegisterRequest) { req.Password = "a1" }, field: "password"},
		{name: "password without digit", mutate: func(req *model.RegisterRequest) { req.Password = "onlyletters" }, field: "password"},
		{name: "password without letter", mutate: func(req *model.RegisterRequest) { req.Password = "1234567890" }, field: "password"},
		{name: "missing display name", mutate: func(req *model.RegisterRequest) { req.DisplayName = "" }, field: "display_name"},
		{name: "invalid gender", mutate: func(req *model.RegisterRequest) { req.Gender = "X" }, field: "gender"},
		{name: "negative weight", mutate: func(req *model.RegisterRequest) { req.Weight = ptr(-1.0) }, field: "weight"},
	}
	for _, tc := range formatCases {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest("buyer")
			tc.mutate(&req)

			_, apiErr := Register(req)
			require.NotNil(t, apiErr)
			assert.Equal(t, apierror.CodeValidation, apiErr.Code)
			assert.Contains(t, apiErr.Fields, tc.field)
		})
	}

	t.Run("vehicle plate length is checked", func(t *testing.T) {
		req := baseRequest("shipper")
		req.VehiclePlate = "AB1"

		_, apiErr := Register(req)
		require.NotNil(t, apiErr)
		assert.Equal(t, apierror.CodeValidation, apiErr.Code)
		assert.Equal(t, "Minimum length is 5", apiErr.Fields["vehicle_plate"])
	})
}

func TestRegister_ManagerCodeFitsColumn(t *testing.T) {
	t.Parallel()

	req := baseRequest("storefront")
	req.StorefrontName = "Fresh Fish"
	req.MarketCode = "CHOLON"
	req.Location = "Stall 12"

	req.ManagerCode = ptr(strings.Repeat("A", 16))
	_, apiErr := Register(req)
	require.Nil(t, apiErr)

	req.ManagerCode = ptr(strings.Repeat("A", 17))
	_, apiErr = Register(req)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierror.CodeValidation, apiErr.Code)
	assert.Equal(t, "Maximum length is 16", apiErr.Fields["manager_code"])
}

func TestLogin(t *testing.T) {
	t.Parallel()

	require.Nil(t, Login(model.LoginRequest{Username: "jane", Password: "x"}))

	apiErr := Login(model.LoginRequest{})
	require.NotNil(t, apiErr)
	assert.Equal(t, apierror.CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Fields, "username")
	assert.Contains(t, apiErr.Fields, "password")
}
