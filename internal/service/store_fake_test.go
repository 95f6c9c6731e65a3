package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/atinyakov/GopherQR/internal/encoder"
	"github.com/atinyakov/GopherQR/internal/models"
)

type link struct{ userID, qrID int64 }

// memStore is an in-memory Store. InTx restores the previous state when fn fails.
type memStore struct {
	// txMu serializes transactions.
	txMu     sync.Mutex
	mu       sync.Mutex
	users    map[int64]models.User
	qrs      map[int64]models.QrCode
	links    map[link]bool
	nextUser int64
	nextQr   int64

	calls map[string]int
	// failOn makes the named method return the error.
	failOn map[string]error
	// conflicts makes the next n inserts of a new user lose a race: the user
	// is created as if by another request and ErrConflict is returned.
	conflicts int
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]models.User{},
		qrs:    map[int64]models.QrCode{},
		links:  map[link]bool{},
		calls:  map[string]int{},
		failOn: map[string]error{},
	}
}

func (m *memStore) enter(name string) error {
	m.calls[name]++
	return m.failOn[name]
}

func (m *memStore) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *memStore) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *memStore) userByName(username string) (models.User, bool) {
	for _, u := range m.users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

func (m *memStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindUserByUsername"); err != nil {
		return nil, err
	}
	u, ok := m.userByName(username)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.QrIDs = []int64{}
	for l := range m.links {
		if l.userID == id {
			u.QrIDs = append(u.QrIDs, l.qrID)
		}
	}
	sort.Slice(u.QrIDs, func(i, j int) bool { return u.QrIDs[i] < u.QrIDs[j] })
	return &u, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListUsers"); err != nil {
		return nil, err
	}
	users := []models.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memStore) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("SaveUser"); err != nil {
		return nil, err
	}
	if existing, ok := m.userByName(user.Username); ok && existing.ID != user.ID {
		return nil, fmt.Errorf("username %q: %w", user.Username, models.ErrConflict)
	}
	saved := models.User{ID: user.ID, Username: user.Username}
	if saved.ID == 0 {
		m.nextUser++
		saved.ID = m.nextUser
		m.users[saved.ID] = saved
		if m.conflicts > 0 {
			m.conflicts--
			return nil, fmt.Errorf("username %q: %w", user.Username, models.ErrConflict)
		}
		return &saved, nil
	}
	if _, ok := m.users[saved.ID]; !ok {
		return nil, models.ErrNotFound
	}
	m.users[saved.ID] = saved
	out := user.Clone()
	return &out, nil
}

func (m *memStore) DeleteUserByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteUserByID"); err != nil {
		return err
	}
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.users, id)
	for l := range m.links {
		if l.userID == id {
			delete(m.links, l)
		}
	}
	return nil
}

func (m *memStore) FindQrByID(ctx context.Context, id int64) (*models.QrCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindQrByID"); err != nil {
		return nil, err
	}
	qr, ok := m.qrs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	qr.Owners = []models.Owner{}
	for l := range m.links {
		if l.qrID == id {
			qr.Owners = append(qr.Owners, models.Owner{ID: l.userID, Username: m.users[l.userID].Username})
		}
	}
	sort.Slice(qr.Owners, func(i, j int) bool { return qr.Owners[i].ID < qr.Owners[j].ID })
	return &qr, nil
}

func (m *memStore) SaveQr(ctx context.Context, qr *models.QrCode) (*models.QrCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("SaveQr"); err != nil {
		return nil, err
	}
	saved := qr.Clone()
	if saved.ID == 0 {
		m.nextQr++
		saved.ID = m.nextQr
	} else if _, ok := m.qrs[saved.ID]; !ok {
		return nil, models.ErrNotFound
	}
	m.qrs[saved.ID] = models.QrCode{ID: saved.ID, Content: saved.Content, Image: saved.Image}
	return &saved, nil
}

func (m *memStore) DeleteQrByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteQrByID"); err != nil {
		return err
	}
	if _, ok := m.qrs[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.qrs, id)
	for l := range m.links {
		if l.qrID == id {
			delete(m.links, l)
		}
	}
	return nil
}

func (m *memStore) FindQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindQrCodesByUsername"); err != nil {
		return nil, err
	}
	codes := []models.QrCode{}
	u, ok := m.userByName(username)
	if !ok {
		return codes, nil
	}
	for l := range m.links {
		if l.userID == u.ID {
			codes = append(codes, m.qrs[l.qrID])
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].ID < codes[j].ID })
	return codes, nil
}

func (m *memStore) AttachQr(ctx context.Context, userID, qrID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("AttachQr"); err != nil {
		return err
	}
	m.links[link{userID, qrID}] = true
	return nil
}

func (m *memStore) DetachQr(ctx context.Context, userID, qrID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DetachQr"); err != nil {
		return err
	}
	delete(m.links, link{userID, qrID})
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	if err := m.enter("InTx"); err != nil {
		m.mu.Unlock()
		return err
	}
	users, qrs, links := maps.Clone(m.users), maps.Clone(m.qrs), maps.Clone(m.links)
	nextUser, nextQr := m.nextUser, m.nextQr
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		// a conflicting user was created "by another request" and must survive
		for id, u := range m.users {
			if _, ok := users[id]; !ok && errors.Is(err, models.ErrConflict) {
				users[id] = u
				nextUser = max(nextUser, id)
			}
		}
		m.users, m.qrs, m.links = users, qrs, links
		m.nextUser, m.nextQr = nextUser, nextQr
		return err
	}
	return nil
}

// fakeEncoder returns a recognisable payload, fails for "bad" and panics for "panic".
type fakeEncoder struct {
	mu    sync.Mutex
	calls int
}

func (e *fakeEncoder) Encode(text string) ([]byte, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	switch text {
	case "bad":
		return nil, fmt.Errorf("%w: content too long", encoder.ErrEncodingFailed)
	case "panic":
		panic("encoder exploded")
	}
	return []byte("png:" + text), nil
}

// pausingStore holds the next non-transactional call of method after the
// load completes, until release is closed. Calls inside InTx reach the
// embedded memStore directly and are never held.
type pausingStore struct {
	*memStore
	method  string
	armed   atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func newPausingStore(method string) *pausingStore {
	return &pausingStore{
		memStore: newMemStore(),
		method:   method,
		loaded:   make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *pausingStore) pause(method string) {
	if method == p.method && p.armed.CompareAndSwap(true, false) {
		close(p.loaded)
		<-p.release
	}
}

func (p *pausingStore) FindQrByID(ctx context.Context, id int64) (*models.QrCode, error) {
	qr, err := p.memStore.FindQrByID(ctx, id)
	p.pause("FindQrByID")
	return qr, err
}

func (p *pausingStore) FindQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error) {
	codes, err := p.memStore.FindQrCodesByUsername(ctx, username)
	p.pause("FindQrCodesByUsername")
	return codes, err
}

func (p *pausingStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := p.memStore.FindUserByID(ctx, id)
	p.pause("FindUserByID")
	return user, err
}
