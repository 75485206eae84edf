// Package odoo reads records from an Odoo server over its XML-RPC API.
package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/BartekS5/odoo-etl/pkg/logger"
)

// ErrAuthentication is returned when Odoo rejects the credentials or the
// common endpoint cannot be reached.
var ErrAuthentication = errors.New("odoo authentication failed")

// Config holds the connection settings of one Odoo database.
type Config struct {
	URL      string
	DB       string
	Username string
	Password string
	Timeout  time.Duration
}

// Client authenticates once and then serves paged search_read calls.
type Client struct {
	cfg    Config
	common *xmlrpc.Client
	object *xmlrpc.Client
	uid    int64
}

// NewClient builds the XML-RPC proxies. No network call is made until
// Authenticate or the first fetch.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	common, err := xmlrpc.NewClient(base+"/xmlrpc/2/common", transport)
	if err != nil {
		return nil, fmt.Errorf("create common proxy: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/2/object", transport)
	if err != nil {
		common.Close()
		return nil, fmt.Errorf("create object proxy: %w", err)
	}
	return &Client{cfg: cfg, common: common, object: object}, nil
}

// Authenticate logs in and stores the session uid.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var reply interface{}
	args := []interface{}{c.cfg.DB, c.cfg.Username, c.cfg.Password, map[string]interface{}{}}
	if err := c.common.Call("authenticate", args, &reply); err != nil {
		logger.Errorf("Failed to authenticate to Odoo: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	uid, ok := reply.(int64)
	if !ok || uid == 0 {
		return 0, fmt.Errorf("%w: credentials rejected for user %q on db %q", ErrAuthentication, c.cfg.Username, c.cfg.DB)
	}

	c.uid = uid
	logger.Infof("Authenticated to Odoo with uid: %d", uid)
	return uid, nil
}

// SearchRead fetches one page of model records matching domain.
func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit, offset int) ([]Record, error) {
	if c.uid == 0 {
		if _, err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := []interface{}{
		c.cfg.DB, c.uid, c.cfg.Password,
		model, "search_read",
		[]interface{}{domain.encode()},
		map[string]interface{}{"fields": fields, "limit": limit, "offset": offset},
	}

	var reply []interface{}
	if err := c.object.Call("execute_kw", args, &reply); err != nil {
		return nil, err
	}

	page := make([]Record, 0, len(reply))
	for i, item := range reply {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("record %d of %s: unexpected %T", offset+i, model, item)
		}
		page = append(page, Record(m))
	}
	return page, nil
}

// FetchAll reads every record of req, page by page.
func (c *Client) FetchAll(ctx context.Context, req FetchRequest) ([]Record, error) {
	return FetchAll(ctx, c, req)
}

func (c *Client) Close() {
	c.common.Close()
	c.object.Close()
}
