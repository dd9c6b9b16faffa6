package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memState is the relational side of the store.
type memState struct {
	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.UserProfile
	otps     map[uuid.UUID]models.OTP
	otpSeq   map[uuid.UUID]int
}

type memStore struct {
	mu  sync.Mutex
	st  memState
	seq int

	// profileConflictOnce makes the next profile insert fail as if another
	// transaction had claimed the mobile number.
	profileConflictOnce bool
}

func newMemStore() *memStore {
	return &memStore{st: memState{
		users:    map[uuid.UUID]models.User{},
		profiles: map[uuid.UUID]models.UserProfile{},
		otps:     map[uuid.UUID]models.OTP{},
		otpSeq:   map[uuid.UUID]int{},
	}}
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := memState{
		users:    make(map[uuid.UUID]models.User, len(m.st.users)),
		profiles: make(map[uuid.UUID]models.UserProfile, len(m.st.profiles)),
		otps:     make(map[uuid.UUID]models.OTP, len(m.st.otps)),
		otpSeq:   make(map[uuid.UUID]int, len(m.st.otpSeq)),
	}
	for k, v := range m.st.users {
		cp.users[k] = v
	}
	for k, v := range m.st.profiles {
		cp.profiles[k] = v
	}
	for k, v := range m.st.otps {
		cp.otps[k] = v
	}
	for k, v := range m.st.otpSeq {
		cp.otpSeq[k] = v
	}
	return cp
}

func (m *memStore) restore(st memState) {
	m.mu.Lock()
	m.st = st
	m.mu.Unlock()
}

func (m *memStore) addUser(u models.User, mobile string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.st.users[u.ID] = u
	p := models.UserProfile{ID: uuid.New(), UserID: u.ID}
	if mobile != "" {
		p.Mobile = &mobile
	}
	m.st.profiles[u.ID] = p
	return u
}

func (m *memStore) otpsFor(userID uuid.UUID) []models.OTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OTP
	for _, o := range m.st.otps {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.users)
}

func (m *memStore) profileOf(userID uuid.UUID) (models.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.profiles[userID]
	return p, ok
}

type memManager struct{ s *memStore }

func (m memManager) Users(dbx.DBTX) repositories.UserRepository       { return memUsers{m.s} }
func (m memManager) Profiles(dbx.DBTX) repositories.ProfileRepository { return memProfiles{m.s} }
func (m memManager) OTPs(dbx.DBTX) repositories.OTPRepository         { return memOTPs{m.s} }

// memTransactor serializes transactions and restores the store when fn
// fails, which is enough to model row locks and rollbacks.
type memTransactor struct {
	mu        sync.Mutex
	s         *memStore
	commits   int
	rollbacks int

	afterRollback func()
}

func (t *memTransactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.s.snapshot()
	if err := fn(ctx, nil); err != nil {
		t.s.restore(snap)
		t.rollbacks++
		if t.afterRollback != nil {
			hook := t.afterRollback
			t.afterRollback = nil
			hook()
		}
		return err
	}
	t.commits++
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) usernameTaken(username string) bool {
	for _, u := range r.s.st.users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.usernameTaken(user.Username) {
		return nil, common.NewConflictError("Username already exists! Please try some other username.")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.DateJoined = testNow
	r.s.st.users[user.ID] = *user
	return user, nil
}

func (r memUsers) CreateIfUsernameFree(_ context.Context, user *models.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.usernameTaken(user.Username) {
		return false, nil
	}
	user.DateJoined = testNow
	r.s.st.users[user.ID] = *user
	return true, nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) LockForUpdate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[id]; !ok {
		return common.ErrNotFound
	}
	return nil
}

func (r memUsers) Activate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.IsActive = true
	r.s.st.users[id] = u
	return nil
}

func (r memUsers) Update(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.Username != nil && *upd.Username != u.Username {
		if r.usernameTaken(*upd.Username) {
			return nil, common.NewConflictError("Username already exists! Please try some other username.")
		}
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	r.s.st.users[id] = u
	return &u, nil
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.st.users, id)
	delete(r.s.st.profiles, id)
	for k, o := range r.s.st.otps {
		if o.UserID == id {
			delete(r.s.st.otps, k)
		}
	}
	return nil
}

func (r memUsers) CountAll(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.st.users)), nil
}

func (r memUsers) List(_ context.Context, limit, page int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.User, 0, len(r.s.st.users))
	for _, u := range r.s.st.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return pageOf(all, limit, page), nil
}

func pageOf[T any](all []T, limit, page int64) []T {
	start := (page - 1) * limit
	if start >= int64(len(all)) {
		return []T{}
	}
	end := start + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end]
}

type memProfiles struct{ s *memStore }

func (r memProfiles) FindByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.profiles {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memProfiles) List(_ context.Context, limit, page int64) ([]models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.UserProfile, 0, len(r.s.st.profiles))
	for _, p := range r.s.st.profiles {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return pageOf(all, limit, page), nil
}

func (r memProfiles) Create(_ context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.profileConflictOnce {
		r.s.profileConflictOnce = false
		return nil, common.NewConflictError("Mobile number already registered!")
	}
	if _, ok := r.s.st.profiles[profile.UserID]; ok {
		return nil, common.NewConflictError("Mobile number already registered!")
	}
	if profile.Mobile != nil {
		for _, p := range r.s.st.profiles {
			if p.Mobile != nil && *p.Mobile == *profile.Mobile {
				return nil, common.NewConflictError("Mobile number already registered!")
			}
		}
	}
	profile.ID = uuid.New()
	r.s.st.profiles[profile.UserID] = *profile
	return profile, nil
}

func (r memProfiles) FindByMobile(_ context.Context, mobile string) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.profiles {
		if p.Mobile != nil && *p.Mobile == mobile {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memProfiles) FindByUserID(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r memProfiles) RecordLogin(_ context.Context, userID uuid.UUID, method models.LoginMethod, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		p = models.UserProfile{ID: uuid.New(), UserID: userID}
	}
	p.LastLoginMethod = &method
	p.LastLoginTime = &at
	p.IsLoggedIn = true
	r.s.st.profiles[userID] = p
	return nil
}

func (r memProfiles) SetLoggedOut(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.IsLoggedIn = false
	r.s.st.profiles[userID] = p
	return nil
}

func (r memProfiles) Update(_ context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.Location != nil {
		p.Location = *upd.Location
	}
	if upd.Website != nil {
		p.Website = *upd.Website
	}
	r.s.st.profiles[userID] = p
	return &p, nil
}

func (r memProfiles) SetProfilePicture(_ context.Context, userID uuid.UUID, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.ProfilePicture = url
	r.s.st.profiles[userID] = p
	return nil
}

type memOTPs struct{ s *memStore }

func (r memOTPs) Create(_ context.Context, otp *models.OTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.st.otps[otp.ID] = *otp
	r.s.st.otpSeq[otp.ID] = r.s.seq
	return nil
}

func (r memOTPs) DeleteUnverified(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, o := range r.s.st.otps {
		if o.UserID == userID && !o.Verified {
			delete(r.s.st.otps, k)
			n++
		}
	}
	return n, nil
}

func (r memOTPs) FindLatestUnverified(_ context.Context, userID uuid.UUID) (*models.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.OTP
	best := -1
	for k, o := range r.s.st.otps {
		if o.UserID == userID && !o.Verified && r.s.st.otpSeq[k] > best {
			o := o
			latest, best = &o, r.s.st.otpSeq[k]
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

func (r memOTPs) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.otps[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	o.Attempts++
	r.s.st.otps[id] = o
	return o.Attempts, nil
}

func (r memOTPs) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.otps[id]
	if !ok {
		return common.ErrNotFound
	}
	o.Verified = true
	r.s.st.otps[id] = o
	return nil
}

func (r memOTPs) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, o := range r.s.st.otps {
		if o.ExpiresAt.Before(now) {
			delete(r.s.st.otps, k)
			n++
		}
	}
	return n, nil
}

type sentMessage struct {
	To   string
	Body string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return nil
}

func (f *fakeSMS) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

type sentEmail struct {
	To, Subject, Body string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(to, subject, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: msg})
	return nil
}

type fakeThrottle struct {
	allow bool
	err   error
	calls int
}

func (f *fakeThrottle) Allow(context.Context, string) (bool, error) {
	f.calls++
	return f.allow, f.err
}

type fakeMedia struct {
	url     string
	err     error
	folders []string
}

func (f *fakeMedia) Upload(_ context.Context, _ io.Reader, folder string) (string, error) {
	f.folders = append(f.folders, folder)
	return f.url, f.err
}

// Mongo side.

type memPosts struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]models.Post
}

func newMemPosts() *memPosts { return &memPosts{posts: map[primitive.ObjectID]models.Post{}} }

func (r *memPosts) EnsureIndexes(context.Context) error { return nil }

func (r *memPosts) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	r.posts[post.ID] = *post
	return post, nil
}

func (r *memPosts) Find(_ context.Context, filter bson.M, limit, page int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Post{}
	for _, p := range r.posts {
		if uid, ok := filter["user_id"]; ok && uid != p.UserID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	start := (page - 1) * limit
	if start >= int64(len(out)) {
		return []models.Post{}, nil
	}
	end := start + limit
	if end > int64(len(out)) {
		end = int64(len(out))
	}
	return out[start:end], nil
}

func (r *memPosts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *memPosts) match(p models.Post, filter bson.M) bool {
	if id, ok := filter["_id"]; ok && id != p.ID {
		return false
	}
	if uid, ok := filter["user_id"]; ok && uid != p.UserID {
		return false
	}
	return true
}

func (r *memPosts) UpdateOne(_ context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.posts {
		if !r.match(p, filter) {
			continue
		}
		set := update["$set"].(bson.M)
		if c, ok := set["content"].(string); ok {
			p.Content = c
		}
		if t, ok := set["updated_at"].(time.Time); ok {
			p.UpdatedAt = t
		}
		r.posts[id] = p
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (r *memPosts) DeleteOne(_ context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.posts {
		if r.match(p, filter) {
			delete(r.posts, id)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

type memComments struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]models.Comment
}

func newMemComments() *memComments {
	return &memComments{comments: map[primitive.ObjectID]models.Comment{}}
}

func (r *memComments) EnsureIndexes(context.Context) error { return nil }

func (r *memComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	r.comments[c.ID] = *c
	return c, nil
}

func (r *memComments) FindByPost(_ context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memComments) FindByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (r *memComments) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	cs, _ := r.FindByPost(ctx, postID)
	return int64(len(cs)), nil
}

func (r *memComments) UpdateOne(_ context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := filter["_id"].(primitive.ObjectID)
	c, ok := r.comments[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	set := update["$set"].(bson.M)
	c.Content = set["content"].(string)
	r.comments[id] = c
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *memComments) DeleteOne(_ context.Context, filter bson.M) (*mongo.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := filter["_id"].(primitive.ObjectID)
	if _, ok := r.comments[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.comments, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r *memComments) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}

type engagementKey struct {
	userID string
	postID primitive.ObjectID
}

type memEngagements struct {
	mu   sync.Mutex
	rows map[engagementKey]models.Engagement
}

func newMemEngagements() *memEngagements {
	return &memEngagements{rows: map[engagementKey]models.Engagement{}}
}

func (r *memEngagements) EnsureIndexes(context.Context) error { return nil }

func (r *memEngagements) Add(_ context.Context, userID string, postID primitive.ObjectID) (*models.Engagement, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := engagementKey{userID, postID}
	if _, ok := r.rows[k]; ok {
		return nil, false, nil
	}
	e := models.Engagement{ID: primitive.NewObjectID(), UserID: userID, PostID: postID, CreatedAt: testNow}
	r.rows[k] = e
	return &e, true, nil
}

func (r *memEngagements) Remove(_ context.Context, userID string, postID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := engagementKey{userID, postID}
	if _, ok := r.rows[k]; !ok {
		return false, nil
	}
	delete(r.rows, k)
	return true, nil
}

func (r *memEngagements) Exists(_ context.Context, userID string, postID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[engagementKey{userID, postID}]
	return ok, nil
}

func (r *memEngagements) CountByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.rows {
		if k.postID == postID {
			n++
		}
	}
	return n, nil
}

func (r *memEngagements) FindByUser(_ context.Context, userID string) ([]models.Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Engagement{}
	for k, e := range r.rows {
		if k.userID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEngagements) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.rows {
		if k.postID == postID {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

type followKey struct{ follower, followee string }

type memFollows struct {
	mu   sync.Mutex
	rows map[followKey]bool
}

func newMemFollows() *memFollows { return &memFollows{rows: map[followKey]bool{}} }

func (r *memFollows) EnsureIndexes(context.Context) error { return nil }

func (r *memFollows) Add(_ context.Context, followerID, followeeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := followKey{followerID, followeeID}
	if r.rows[k] {
		return false, nil
	}
	r.rows[k] = true
	return true, nil
}

func (r *memFollows) Remove(_ context.Context, followerID, followeeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := followKey{followerID, followeeID}
	if !r.rows[k] {
		return false, nil
	}
	delete(r.rows, k)
	return true, nil
}

func (r *memFollows) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[followKey{followerID, followeeID}], nil
}

func (r *memFollows) CountFollowers(_ context.Context, userID string) (int64, error) {
	return r.count(func(k followKey) bool { return k.followee == userID }), nil
}

func (r *memFollows) CountFollowing(_ context.Context, userID string) (int64, error) {
	return r.count(func(k followKey) bool { return k.follower == userID }), nil
}

func (r *memFollows) count(match func(followKey) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.rows {
		if match(k) {
			n++
		}
	}
	return n
}

func (r *memFollows) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.rows {
		if k.follower == userID || k.followee == userID {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}
