package apiclient

// UsersResponse lists the usernames known to the users file.
type UsersResponse struct {
	Users []string `json:"users"`
	Total int      `json:"total"`
}

// Users returns all usernames in users-file order.
func (c *Client) Users() (*UsersResponse, error) {
	var resp UsersResponse
	if err := c.get("/api/v1/users", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
