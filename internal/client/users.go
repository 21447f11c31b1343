package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
)

// UsersClient implements grist.UsersClient over the SCIM endpoints.
type UsersClient struct {
	httpClient *http.Client
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{
		httpClient: httpClient,
	}
}

// Me implements grist.UsersClient.Me.
func (c *UsersClient) Me(ctx context.Context) (*grist.SCIMUser, error) {
	resp, err := c.httpClient.Get(ctx, "/scim/v2/Me", nil)
	if err != nil {
		return nil, fmt.Errorf("getting own account: %w", err)
	}

	var user grist.SCIMUser

	err = decodeJSON(resp, &user)
	if err != nil {
		return nil, fmt.Errorf("parsing user: %w", err)
	}

	return &user, nil
}

// Get implements grist.UsersClient.Get.
func (c *UsersClient) Get(ctx context.Context, userID int) (*grist.SCIMUser, error) {
	path := fmt.Sprintf("/scim/v2/Users/%d", userID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var user grist.SCIMUser

	err = decodeJSON(resp, &user)
	if err != nil {
		return nil, fmt.Errorf("parsing user: %w", err)
	}

	return &user, nil
}

// List implements grist.UsersClient.List. Non-positive arguments fall
// back to the first index and the default page size.
func (c *UsersClient) List(ctx context.Context, startIndex, count int) (*grist.SCIMListResponse, error) {
	if startIndex <= 0 {
		startIndex = constants.DefaultSCIMStartIndex
	}

	if count <= 0 {
		count = constants.DefaultSCIMCount
	}

	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	query.Set("count", strconv.Itoa(count))

	resp, err := c.httpClient.Get(ctx, "/scim/v2/Users", query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var list grist.SCIMListResponse

	err = decodeJSON(resp, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing users list: %w", err)
	}

	return &list, nil
}

// Iterate implements grist.UsersClient.Iterate.
func (c *UsersClient) Iterate(chunk int) *grist.Iterator[grist.SCIMUser] {
	fetch := func(ctx context.Context, startIndex, count int) ([]grist.SCIMUser, int, error) {
		list, err := c.List(ctx, startIndex, count)
		if err != nil {
			return nil, 0, err
		}

		return list.Resources, list.TotalResults, nil
	}

	return grist.NewIterator(fetch, chunk)
}

// Search implements grist.UsersClient.Search. The request's schemas are
// filled in when absent; the caller's struct is not touched.
func (c *UsersClient) Search(ctx context.Context, request *grist.SCIMSearchRequest) (*grist.SCIMListResponse, error) {
	body := grist.SCIMSearchRequest{}
	if request != nil {
		body = *request
	}

	if len(body.Schemas) == 0 {
		body.Schemas = []string{grist.SCIMSearchSchema}
	}

	resp, err := c.httpClient.Post(ctx, "/scim/v2/Users/.search", body)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}

	var list grist.SCIMListResponse

	err = decodeJSON(resp, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing users list: %w", err)
	}

	return &list, nil
}

// Create implements grist.UsersClient.Create. SCIM hands back string
// ids, but Grist's are numeric underneath and every other endpoint
// wants the number.
func (c *UsersClient) Create(ctx context.Context, user *grist.SCIMUser) (int, error) {
	body := grist.SCIMUser{}
	if user != nil {
		body = *user
	}

	if len(body.Schemas) == 0 {
		body.Schemas = []string{grist.SCIMUserSchema}
	}

	resp, err := c.httpClient.Post(ctx, "/scim/v2/Users", body)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	var created grist.SCIMUser

	err = decodeJSON(resp, &created)
	if err != nil {
		return 0, fmt.Errorf("parsing user response: %w", err)
	}

	if created.ID == "" {
		return 0, nil
	}

	userID, err := strconv.Atoi(created.ID)
	if err != nil {
		return 0, fmt.Errorf("parsing user id: %w", err)
	}

	return userID, nil
}

// Update implements grist.UsersClient.Update, replacing the whole
// account.
func (c *UsersClient) Update(ctx context.Context, userID int, user *grist.SCIMUser) error {
	path := fmt.Sprintf("/scim/v2/Users/%d", userID)

	body := grist.SCIMUser{}
	if user != nil {
		body = *user
	}

	if len(body.Schemas) == 0 {
		body.Schemas = []string{grist.SCIMUserSchema}
	}

	_, err := c.httpClient.Put(ctx, path, body)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	return nil
}

// Patch implements grist.UsersClient.Patch.
func (c *UsersClient) Patch(ctx context.Context, userID int, ops ...grist.SCIMPatchOp) error {
	path := fmt.Sprintf("/scim/v2/Users/%d", userID)

	body := map[string]interface{}{
		"schemas":    []string{grist.SCIMPatchOpSchema},
		"Operations": ops,
	}

	_, err := c.httpClient.Patch(ctx, path, body)
	if err != nil {
		return fmt.Errorf("patching user: %w", err)
	}

	return nil
}

// Delete implements grist.UsersClient.Delete.
func (c *UsersClient) Delete(ctx context.Context, userID int) error {
	path := fmt.Sprintf("/scim/v2/Users/%d", userID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

// DeleteAccount implements grist.UsersClient.DeleteAccount.
func (c *UsersClient) DeleteAccount(ctx context.Context, userID int) error {
	path := fmt.Sprintf("/users/%d", userID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	return nil
}

// Schemas implements grist.UsersClient.Schemas.
func (c *UsersClient) Schemas(ctx context.Context) (json.RawMessage, error) {
	return c.rawGet(ctx, "/scim/v2/Schemas", "getting schemas")
}

// ResourceTypes implements grist.UsersClient.ResourceTypes.
func (c *UsersClient) ResourceTypes(ctx context.Context) (json.RawMessage, error) {
	return c.rawGet(ctx, "/scim/v2/ResourceTypes", "getting resource types")
}

// ProviderConfig implements grist.UsersClient.ProviderConfig.
func (c *UsersClient) ProviderConfig(ctx context.Context) (json.RawMessage, error) {
	return c.rawGet(ctx, "/scim/v2/ServiceProviderConfig", "getting provider config")
}

// rawGet fetches an endpoint whose payload is passed through verbatim.
func (c *UsersClient) rawGet(ctx context.Context, path, doing string) (json.RawMessage, error) {
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doing, err)
	}

	var raw json.RawMessage

	err = decodeJSON(resp, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doing, err)
	}

	return raw, nil
}
