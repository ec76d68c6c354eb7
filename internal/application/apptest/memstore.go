// Package apptest provee dobles en memoria de los puertos de persistencia, caché y
// eventos para probar los casos de uso sin PostgreSQL, Redis ni RabbitMQ.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

// Store base de datos en memoria. Los repos devuelven copias, igual que una fila leída.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	requestSeq  int
	requests    map[string]*entity.Request
	activities  map[string][]*entity.Activity
	timeEntries map[string]*entity.TimeEntry
	clients     map[string]*entity.Client
	users       map[string]*entity.User
	roles       map[string]*entity.Role
	rolePerms   map[string]permission.Set

	failures map[string]error
	// RolePermissionReads cuenta las lecturas de permisos (para verificar la caché).
	RolePermissionReads int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		requests:    make(map[string]*entity.Request),
		activities:  make(map[string][]*entity.Activity),
		timeEntries: make(map[string]*entity.TimeEntry),
		clients:     make(map[string]*entity.Client),
		users:       make(map[string]*entity.User),
		roles:       make(map[string]*entity.Role),
		rolePerms:   make(map[string]permission.Set),
		failures:    make(map[string]error),
	}
}

// FailOn hace que la operación op ("requests.update", "requests.delete", "roles.permissions"...)
// sobre id devuelva err. id "*" aplica a cualquier id.
func (s *Store) FailOn(op, id string, err error) {
	s.mu.Lock()
	s.failures[op+":"+id] = err
	s.mu.Unlock()
}

func (s *Store) failure(op, id string) error {
	if err, ok := s.failures[op+":"+id]; ok {
		return err
	}
	return s.failures[op+":*"]
}

// ── Semillas ──────────────────────────────────────────────────────────────────

// AddUser registra un usuario.
func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// AddRole registra un rol con su set.
func (s *Store) AddRole(r *entity.Role, set permission.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.roles[r.ID] = &cp
	if set != nil {
		s.rolePerms[r.ID] = set.Clone()
	}
}

// PutRequest inserta o reemplaza una solicitud tal cual.
func (s *Store) PutRequest(r *entity.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = cloneRequest(r)
}

// PutClient inserta o reemplaza un cliente tal cual.
func (s *Store) PutClient(c *entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.clients[c.ID] = &cp
}

// Request lectura directa para aserciones.
func (s *Store) Request(id string) *entity.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		return cloneRequest(r)
	}
	return nil
}

// ActivitiesOf lectura directa del historial.
func (s *Store) ActivitiesOf(requestID string) []*entity.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Activity, 0, len(s.activities[requestID]))
	for _, a := range s.activities[requestID] {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// TimeEntry lectura directa.
func (s *Store) TimeEntry(id string) *entity.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timeEntries[id]; ok {
		return cloneEntry(e)
	}
	return nil
}

// ── Transacciones ─────────────────────────────────────────────────────────────

type snapshot struct {
	requestSeq  int
	requests    map[string]*entity.Request
	activities  map[string][]*entity.Activity
	timeEntries map[string]*entity.TimeEntry
	clients     map[string]*entity.Client
	rolePerms   map[string]permission.Set
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		requestSeq:  s.requestSeq,
		requests:    make(map[string]*entity.Request, len(s.requests)),
		activities:  make(map[string][]*entity.Activity, len(s.activities)),
		timeEntries: make(map[string]*entity.TimeEntry, len(s.timeEntries)),
		clients:     make(map[string]*entity.Client, len(s.clients)),
		rolePerms:   make(map[string]permission.Set, len(s.rolePerms)),
	}
	for k, v := range s.requests {
		snap.requests[k] = cloneRequest(v)
	}
	for k, v := range s.activities {
		list := make([]*entity.Activity, len(v))
		for i, a := range v {
			cp := *a
			list[i] = &cp
		}
		snap.activities[k] = list
	}
	for k, v := range s.timeEntries {
		snap.timeEntries[k] = cloneEntry(v)
	}
	for k, v := range s.clients {
		cp := *v
		snap.clients[k] = &cp
	}
	for k, v := range s.rolePerms {
		snap.rolePerms[k] = v.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestSeq = snap.requestSeq
	s.requests = snap.requests
	s.activities = snap.activities
	s.timeEntries = snap.timeEntries
	s.clients = snap.clients
	s.rolePerms = snap.rolePerms
}

// TxRunner transacciones serializadas: si fn falla se restaura la foto previa.
type TxRunner struct {
	s *Store
	// Commits y Rollbacks cuentan las transacciones terminadas.
	Commits   int
	Rollbacks int
}

var _ ports.TxRunner = (*TxRunner)(nil)

// NewTxRunner runner sobre el store.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
	}
	snap := r.s.snapshot()
	if err := fn(r.s.Repos()); err != nil {
		r.s.restore(snap)
		r.Rollbacks++
		return err
	}
	r.Commits++
	return nil
}

// Repos repos sin transacción sobre el store.
func (s *Store) Repos() ports.TxRepos {
	return ports.TxRepos{
		Requests:    &RequestRepo{s: s},
		Activities:  &ActivityRepo{s: s},
		TimeEntries: &TimeEntryRepo{s: s},
		Clients:     &ClientRepo{s: s},
	}
}

// ── Requests ──────────────────────────────────────────────────────────────────

// RequestRepo repository.RequestRepository en memoria.
type RequestRepo struct{ s *Store }

var _ repository.RequestRepository = (*RequestRepo)(nil)

func (r *RequestRepo) Create(_ context.Context, req *entity.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.create", req.ID); err != nil {
		return err
	}
	r.s.requestSeq++
	req.RequestNumber = fmt.Sprintf("REQ-%06d", r.s.requestSeq)
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepo) GetByID(_ context.Context, companyID, id string) (*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.get", id); err != nil {
		return nil, err
	}
	req, ok := r.s.requests[id]
	if !ok || req.CompanyID != companyID {
		return nil, nil
	}
	return cloneRequest(req), nil
}

func (r *RequestRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Request, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *RequestRepo) Update(_ context.Context, req *entity.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.update", req.ID); err != nil {
		return err
	}
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := cloneRequest(req)
	next.AssignedUsers = append([]string(nil), cur.AssignedUsers...)
	next.ActualHours = cur.ActualHours
	r.s.requests[req.ID] = next
	return nil
}

func (r *RequestRepo) ReplaceAssignees(_ context.Context, requestID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.assign", requestID); err != nil {
		return err
	}
	cur, ok := r.s.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.AssignedUsers = append([]string(nil), userIDs...)
	return nil
}

func (r *RequestRepo) Delete(_ context.Context, companyID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.delete", id); err != nil {
		return err
	}
	cur, ok := r.s.requests[id]
	if !ok || cur.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.requests, id)
	delete(r.s.activities, id)
	for eid, e := range r.s.timeEntries {
		if e.RequestID == id {
			delete(r.s.timeEntries, eid)
		}
	}
	return nil
}

func (r *RequestRepo) List(_ context.Context, f repository.RequestFilter) ([]*entity.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Request
	for _, req := range r.s.requests {
		if req.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Priority != "" && req.Priority != f.Priority {
			continue
		}
		if f.ClientID != "" && req.ClientID != f.ClientID {
			continue
		}
		if f.OnlyUserID != "" && req.CreatedBy != f.OnlyUserID && !req.IsAssignedTo(f.OnlyUserID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(req.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestNumber > out[j].RequestNumber })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *RequestRepo) AddActualHours(_ context.Context, requestID string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("requests.hours", requestID); err != nil {
		return err
	}
	cur, ok := r.s.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	next := cur.ActualHours.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	cur.ActualHours = next
	return nil
}

func (r *RequestRepo) CountByClient(_ context.Context, companyID, clientID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, req := range r.s.requests {
		if req.CompanyID == companyID && req.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

// ── Activities ────────────────────────────────────────────────────────────────

// ActivityRepo repository.ActivityRepository en memoria.
type ActivityRepo struct{ s *Store }

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

func (r *ActivityRepo) Append(_ context.Context, a *entity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("activities.append", a.RequestID); err != nil {
		return err
	}
	list := r.s.activities[a.RequestID]
	a.Seq = int64(len(list)) + 1
	cp := *a
	r.s.activities[a.RequestID] = append(list, &cp)
	return nil
}

func (r *ActivityRepo) ListByRequest(_ context.Context, requestID string) ([]*entity.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Activity, 0, len(r.s.activities[requestID]))
	for _, a := range r.s.activities[requestID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// ── Time entries ──────────────────────────────────────────────────────────────

// TimeEntryRepo repository.TimeEntryRepository en memoria.
type TimeEntryRepo struct{ s *Store }

var _ repository.TimeEntryRepository = (*TimeEntryRepo)(nil)

func (r *TimeEntryRepo) Create(_ context.Context, e *entity.TimeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("time_entries.create", e.RequestID); err != nil {
		return err
	}
	for _, cur := range r.s.timeEntries {
		if cur.RequestID == e.RequestID && cur.UserID == e.UserID && cur.Status.IsOpen() {
			return fmt.Errorf("%w: ya existe un registro abierto", domain.ErrPreconditionFailed)
		}
	}
	r.s.timeEntries[e.ID] = cloneEntry(e)
	return nil
}

func (r *TimeEntryRepo) GetByID(_ context.Context, companyID, id string) (*entity.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.timeEntries[id]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	return cloneEntry(e), nil
}

func (r *TimeEntryRepo) GetOpen(_ context.Context, requestID, userID string) (*entity.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.timeEntries {
		if e.RequestID == requestID && e.UserID == userID && e.Status.IsOpen() {
			return cloneEntry(e), nil
		}
	}
	return nil, nil
}

func (r *TimeEntryRepo) Update(_ context.Context, e *entity.TimeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("time_entries.update", e.ID); err != nil {
		return err
	}
	if _, ok := r.s.timeEntries[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.timeEntries[e.ID] = cloneEntry(e)
	return nil
}

func (r *TimeEntryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.timeEntries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.timeEntries, id)
	return nil
}

func (r *TimeEntryRepo) ListByRequest(_ context.Context, requestID string) ([]*entity.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TimeEntry
	for _, e := range r.s.timeEntries {
		if e.RequestID == requestID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// ── Clients ───────────────────────────────────────────────────────────────────

// ClientRepo repository.ClientRepository en memoria.
type ClientRepo struct{ s *Store }

var _ repository.ClientRepository = (*ClientRepo)(nil)

func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *ClientRepo) GetByID(_ context.Context, companyID, id string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ClientRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Client, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *ClientRepo) Update(_ context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("clients.update", c.ID); err != nil {
		return err
	}
	if _, ok := r.s.clients[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *ClientRepo) Delete(_ context.Context, companyID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("clients.delete", id); err != nil {
		return err
	}
	c, ok := r.s.clients[id]
	if !ok || c.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.clients, id)
	return nil
}

func (r *ClientRepo) List(_ context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.s.clients {
		if c.CompanyID != f.CompanyID {
			continue
		}
		if f.Tier != "" && c.Tier != f.Tier {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && c.OwnerID != f.OwnerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Limit, f.Offset), nil
}

// ── Users y roles ─────────────────────────────────────────────────────────────

// UserRepo repository.UserRepository en memoria.
type UserRepo struct{ s *Store }

var _ repository.UserRepository = (*UserRepo)(nil)

// Users repo de usuarios del store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ExistingIDs(_ context.Context, companyID string, ids []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok && u.CompanyID == companyID && u.Status == entity.UserStatusActive {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *UserRepo) ListActive(_ context.Context, companyID string) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if u.CompanyID == companyID && u.Status == entity.UserStatusActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// RoleRepo repository.RoleRepository en memoria.
type RoleRepo struct{ s *Store }

var _ repository.RoleRepository = (*RoleRepo)(nil)

// Roles repo de roles del store.
func (s *Store) Roles() *RoleRepo { return &RoleRepo{s: s} }

func (r *RoleRepo) GetByName(_ context.Context, companyID, name string) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("roles.get", name); err != nil {
		return nil, err
	}
	for _, role := range r.s.roles {
		if role.CompanyID == companyID && role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *RoleRepo) GetByID(_ context.Context, companyID, id string) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok || role.CompanyID != companyID {
		return nil, nil
	}
	cp := *role
	return &cp, nil
}

func (r *RoleRepo) GetPermissions(_ context.Context, roleID string) (permission.Set, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.RolePermissionReads++
	if err := r.s.failure("roles.permissions", roleID); err != nil {
		return nil, err
	}
	set, ok := r.s.rolePerms[roleID]
	if !ok {
		return permission.Set{}, nil
	}
	return set.Clone(), nil
}

func (r *RoleRepo) ReplacePermissions(_ context.Context, roleID string, set permission.Set) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.rolePerms[roleID] = set.Clone()
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func cloneRequest(r *entity.Request) *entity.Request {
	cp := *r
	cp.AssignedUsers = append([]string(nil), r.AssignedUsers...)
	if r.ProductID != nil {
		p := *r.ProductID
		cp.ProductID = &p
	}
	return &cp
}

func cloneEntry(e *entity.TimeEntry) *entity.TimeEntry {
	cp := *e
	if e.EndedAt != nil {
		t := *e.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
