package cpo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	"chargenet-cloud/internal/ocpi/mapper"
	"chargenet-cloud/internal/ocpi/transport"
	roaming "chargenet-cloud/internal/roaming/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
)

const (
	defaultPageSize    = 50
	defaultConcurrency = 5
)

// Transport is the outbound HTTP surface the client drives.
type Transport interface {
	Get(ctx context.Context, url string) (*transport.Response, error)
	Post(ctx context.Context, url string, body any) (*transport.Response, error)
	Put(ctx context.Context, url string, body any) (*transport.Response, error)
	Patch(ctx context.Context, url string, body any) (*transport.Response, error)
}

// AdminNotifier carries batch-failure notices out of band. Implementations
// must not block the batch.
type AdminNotifier interface {
	NotifyPatchFailure(tenantID, locationID string, err error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Deps wires one client. Every repository follows the storage get/save
// contracts; the client owns no persistence of its own.
type Deps struct {
	Tenant       roaming.Tenant
	Endpoint     *roaming.Endpoint
	Transport    Transport
	Mapper       *mapper.Mapper
	Stations     masterdata.StationRepository
	Sites        masterdata.SiteRepository
	SiteAreas    masterdata.SiteAreaRepository
	Tags         masterdata.TagRepository
	Users        masterdata.UserRepository
	Transactions sessions.TransactionRepository
	Consumptions sessions.ConsumptionRepository
	Endpoints    roaming.EndpointRepository
	Notifier     AdminNotifier
	Clock        Clock
	Logger       *log.Logger
	PageSize     int
	Concurrency  int
}

// Client runs the CPO-side roaming use cases for one registered endpoint.
type Client struct {
	tenant       roaming.Tenant
	endpoint     *roaming.Endpoint
	transport    Transport
	mapper       *mapper.Mapper
	stations     masterdata.StationRepository
	sites        masterdata.SiteRepository
	siteAreas    masterdata.SiteAreaRepository
	tags         masterdata.TagRepository
	users        masterdata.UserRepository
	transactions sessions.TransactionRepository
	consumptions sessions.ConsumptionRepository
	endpoints    roaming.EndpointRepository
	notifier     AdminNotifier
	clock        Clock
	logger       *log.Logger
	pageSize     int
	concurrency  int
}

// NewClient constructs a CPO client.
func NewClient(deps Deps) (*Client, error) {
	if deps.Endpoint == nil {
		return nil, errors.New("cpo: nil endpoint")
	}
	if err := deps.Endpoint.Validate(); err != nil {
		return nil, err
	}
	if deps.Transport == nil {
		return nil, errors.New("cpo: nil transport")
	}
	if deps.Mapper == nil {
		return nil, errors.New("cpo: nil mapper")
	}
	if deps.Stations == nil || deps.Sites == nil || deps.SiteAreas == nil {
		return nil, errors.New("cpo: nil masterdata repository")
	}
	if deps.Tags == nil || deps.Users == nil {
		return nil, errors.New("cpo: nil tag or user repository")
	}
	if deps.Transactions == nil || deps.Consumptions == nil {
		return nil, errors.New("cpo: nil transaction repository")
	}
	if deps.Endpoints == nil {
		return nil, errors.New("cpo: nil endpoint repository")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = defaultPageSize
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultConcurrency
	}
	return &Client{
		tenant:       deps.Tenant,
		endpoint:     deps.Endpoint,
		transport:    deps.Transport,
		mapper:       deps.Mapper,
		stations:     deps.Stations,
		sites:        deps.Sites,
		siteAreas:    deps.SiteAreas,
		tags:         deps.Tags,
		users:        deps.Users,
		transactions: deps.Transactions,
		consumptions: deps.Consumptions,
		endpoints:    deps.Endpoints,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
		pageSize:     deps.PageSize,
		concurrency:  deps.Concurrency,
	}, nil
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.endpoint.BaseURL, "/")
}

func (c *Client) sessionsURL(sessionID string) string {
	return fmt.Sprintf("%s/sessions/%s/%s/%s", c.baseURL(), c.endpoint.CountryCode, c.endpoint.PartyID, sessionID)
}

func (c *Client) cdrsURL() string {
	return fmt.Sprintf("%s/cdrs", c.baseURL())
}

func (c *Client) cdrURL(cdrID string) string {
	return fmt.Sprintf("%s/cdrs/%s/%s/%s", c.baseURL(), c.endpoint.CountryCode, c.endpoint.PartyID, cdrID)
}

func (c *Client) tokensURL() string {
	return fmt.Sprintf("%s/tokens", c.baseURL())
}

func (c *Client) locationURL(locationID string) string {
	return fmt.Sprintf("%s/locations/%s/%s/%s", c.baseURL(), c.endpoint.CountryCode, c.endpoint.PartyID, locationID)
}

func (c *Client) evseURL(locationID, evseUID string) string {
	return fmt.Sprintf("%s/%s", c.locationURL(locationID), evseUID)
}

// Registry hands out one client per (tenant, endpoint), owned by the call
// site. There is no package-level instance.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
	build   func(tenant roaming.Tenant, endpoint *roaming.Endpoint) (*Client, error)
}

// NewRegistry constructs a registry around a client factory.
func NewRegistry(build func(tenant roaming.Tenant, endpoint *roaming.Endpoint) (*Client, error)) (*Registry, error) {
	if build == nil {
		return nil, errors.New("cpo: nil client factory")
	}
	return &Registry{clients: make(map[string]*Client), build: build}, nil
}

// ClientFor returns the client for the pair, building it on first use. A
// cached client adopts the caller's tenant and endpoint records so that job
// bookkeeping read at batch start reflects what is persisted, not the
// snapshot of an earlier tick. The client is rebuilt when credentials or the
// base URL rotated.
func (r *Registry) ClientFor(tenant roaming.Tenant, endpoint *roaming.Endpoint) (*Client, error) {
	if endpoint == nil {
		return nil, errors.New("cpo: nil endpoint")
	}
	key := tenant.ID + "|" + endpoint.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[key]; ok {
		if client.endpoint.Token == endpoint.Token && client.endpoint.BaseURL == endpoint.BaseURL {
			client.tenant = tenant
			client.endpoint = endpoint
			return client, nil
		}
		delete(r.clients, key)
	}
	client, err := r.build(tenant, endpoint)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}
