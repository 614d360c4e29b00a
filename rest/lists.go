package rest

import (
	"context"
	"net/http"

	"github.com/letmevibethatforyou/storefrontx"
)

// listsResponse accepts both keys the backend has used for the collection.
type listsResponse struct {
	Lists     []storefrontx.List `json:"lists"`
	ListsUser []storefrontx.List `json:"listsUser"`
}

type listResponse struct {
	List storefrontx.List `json:"list"`
}

type toggleResponse struct {
	Remove bool `json:"remove"`
}

type newListBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserToken   string `json:"userToken"`
}

type listIDBody struct {
	ListID string `json:"listId"`
}

// Lists returns every list owned by the token's user.
func (c *Client) Lists(ctx context.Context, token string) ([]storefrontx.List, error) {
	var resp listsResponse
	if err := c.do(ctx, http.MethodGet, "lists.get", pathf("/lists/%s", token), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Lists != nil {
		return resp.Lists, nil
	}
	return resp.ListsUser, nil
}

// ToggleListItem adds the product to the list, or removes it if already
// present. It reports whether the edge was removed.
func (c *Client) ToggleListItem(ctx context.Context, token, productID, listID string) (bool, error) {
	var resp toggleResponse
	path := pathf("/lists/addToLists/%s/%s/%s", token, productID, listID)
	if err := c.do(ctx, http.MethodPost, "lists.toggle", path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Remove, nil
}

// CreateList creates an empty list and returns it.
func (c *Client) CreateList(ctx context.Context, token, name, description string) (storefrontx.List, error) {
	var resp listResponse
	body := newListBody{Name: name, Description: description, UserToken: token}
	if err := c.do(ctx, http.MethodPost, "lists.create", "/lists/newLists", body, &resp); err != nil {
		return storefrontx.List{}, err
	}
	return resp.List, nil
}

// RemoveList deletes a list.
func (c *Client) RemoveList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "lists.remove", "/lists/removeList", listIDBody{ListID: listID}, nil)
}

// MarkListDone flags a list as purchased.
func (c *Client) MarkListDone(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodPost, "lists.done", "/lists/listDone", listIDBody{ListID: listID}, nil)
}
