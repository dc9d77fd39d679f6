// Package repotest provides an in-memory implementation of the repository
// ports for tests. It enforces the same uniqueness and referential rules as
// the PostgreSQL schema.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// Store holds every table behind one lock
type Store struct {
	mu sync.RWMutex

	nextID int64

	users      map[int64]entities.User
	statuses   map[int64]entities.Status
	labels     map[int64]entities.Label
	tasks      map[int64]entities.Task
	taskLabels map[int64][]int64
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		nextID:     1,
		users:      make(map[int64]entities.User),
		statuses:   make(map[int64]entities.Status),
		labels:     make(map[int64]entities.Label),
		tasks:      make(map[int64]entities.Task),
		taskLabels: make(map[int64][]int64),
	}
}

func (s *Store) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// Users returns the UserRepository view of the store
func (s *Store) Users() ports.UserRepository { return userRepo{s} }

// Statuses returns the StatusRepository view of the store
func (s *Store) Statuses() ports.StatusRepository { return statusRepo{s} }

// Labels returns the LabelRepository view of the store
func (s *Store) Labels() ports.LabelRepository { return labelRepo{s} }

// Tasks returns the TaskRepository view of the store
func (s *Store) Tasks() ports.TaskRepository { return taskRepo{s} }

// Counts returns the number of users, statuses, labels and tasks
func (s *Store) Counts() (users, statuses, labels, tasks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.statuses), len(s.labels), len(s.tasks)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return entities.ErrUsernameTaken
		}
	}
	user.ID = r.s.id()
	user.DateJoined = time.Now()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r userRepo) Update(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return entities.ErrUsernameTaken
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) BumpSessionVersion(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.SessionVersion++
	r.s.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return entities.ErrUserNotFound
	}
	for _, t := range r.s.tasks {
		if t.AuthorID == id || t.ExecutorID == id {
			return entities.ErrUserInUse
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r userRepo) List(_ context.Context) ([]*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type statusRepo struct{ s *Store }

func (r statusRepo) Create(_ context.Context, status *entities.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, st := range r.s.statuses {
		if st.Name == status.Name {
			return entities.ErrStatusNameTaken
		}
	}
	status.ID = r.s.id()
	status.CreatedAt = time.Now()
	r.s.statuses[status.ID] = *status
	return nil
}

func (r statusRepo) GetByID(_ context.Context, id int64) (*entities.Status, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.statuses[id]
	if !ok {
		return nil, entities.ErrStatusNotFound
	}
	return &st, nil
}

func (r statusRepo) GetByName(_ context.Context, name string) (*entities.Status, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.statuses {
		if st.Name == name {
			st := st
			return &st, nil
		}
	}
	return nil, entities.ErrStatusNotFound
}

func (r statusRepo) Update(_ context.Context, status *entities.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.statuses[status.ID]
	if !ok {
		return entities.ErrStatusNotFound
	}
	for _, st := range r.s.statuses {
		if st.ID != status.ID && st.Name == status.Name {
			return entities.ErrStatusNameTaken
		}
	}
	existing.Name = status.Name
	r.s.statuses[status.ID] = existing
	return nil
}

func (r statusRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.statuses[id]; !ok {
		return entities.ErrStatusNotFound
	}
	for _, t := range r.s.tasks {
		if t.StatusID == id {
			return entities.ErrStatusInUse
		}
	}
	delete(r.s.statuses, id)
	return nil
}

func (r statusRepo) List(_ context.Context) ([]*entities.Status, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.Status, 0, len(r.s.statuses))
	for _, st := range r.s.statuses {
		st := st
		out = append(out, &st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type labelRepo struct{ s *Store }

func (r labelRepo) Create(_ context.Context, label *entities.Label) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.labels {
		if l.Name == label.Name {
			return entities.ErrLabelNameTaken
		}
	}
	label.ID = r.s.id()
	label.CreatedAt = time.Now()
	r.s.labels[label.ID] = *label
	return nil
}

func (r labelRepo) GetByID(_ context.Context, id int64) (*entities.Label, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.labels[id]
	if !ok {
		return nil, entities.ErrLabelNotFound
	}
	return &l, nil
}

func (r labelRepo) GetByName(_ context.Context, name string) (*entities.Label, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, l := range r.s.labels {
		if l.Name == name {
			l := l
			return &l, nil
		}
	}
	return nil, entities.ErrLabelNotFound
}

func (r labelRepo) GetByIDs(_ context.Context, ids []int64) ([]*entities.Label, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*entities.Label{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if l, ok := r.s.labels[id]; ok && !seen[id] {
			seen[id] = true
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r labelRepo) Update(_ context.Context, label *entities.Label) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.labels[label.ID]
	if !ok {
		return entities.ErrLabelNotFound
	}
	for _, l := range r.s.labels {
		if l.ID != label.ID && l.Name == label.Name {
			return entities.ErrLabelNameTaken
		}
	}
	existing.Name = label.Name
	r.s.labels[label.ID] = existing
	return nil
}

func (r labelRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.labels[id]; !ok {
		return entities.ErrLabelNotFound
	}
	for _, ids := range r.s.taskLabels {
		for _, labelID := range ids {
			if labelID == id {
				return entities.ErrLabelInUse
			}
		}
	}
	delete(r.s.labels, id)
	return nil
}

func (r labelRepo) List(_ context.Context) ([]*entities.Label, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.Label, 0, len(r.s.labels))
	for _, l := range r.s.labels {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type taskRepo struct{ s *Store }

// checkRefs must be called with the write lock held
func (r taskRepo) checkRefs(task *entities.Task, labelIDs []int64) error {
	if _, ok := r.s.users[task.AuthorID]; !ok {
		return entities.ErrUserNotFound
	}
	if _, ok := r.s.users[task.ExecutorID]; !ok {
		return entities.ErrUserNotFound
	}
	if _, ok := r.s.statuses[task.StatusID]; !ok {
		return entities.ErrStatusNotFound
	}
	for _, id := range labelIDs {
		if _, ok := r.s.labels[id]; !ok {
			return entities.ErrLabelNotFound
		}
	}
	return nil
}

func (r taskRepo) Create(_ context.Context, task *entities.Task, labelIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tasks {
		if t.Name == task.Name {
			return entities.ErrTaskNameTaken
		}
	}
	if err := r.checkRefs(task, labelIDs); err != nil {
		return err
	}

	task.ID = r.s.id()
	task.CreatedAt = time.Now()
	r.s.tasks[task.ID] = stripRelations(*task)
	r.s.taskLabels[task.ID] = append([]int64(nil), labelIDs...)
	return nil
}

func (r taskRepo) GetByID(_ context.Context, id int64) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return r.hydrate(t), nil
}

func (r taskRepo) GetByName(_ context.Context, name string) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tasks {
		if t.Name == name {
			return r.hydrate(t), nil
		}
	}
	return nil, entities.ErrTaskNotFound
}

func (r taskRepo) Update(_ context.Context, task *entities.Task, labelIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[task.ID]
	if !ok {
		return entities.ErrTaskNotFound
	}
	for _, t := range r.s.tasks {
		if t.ID != task.ID && t.Name == task.Name {
			return entities.ErrTaskNameTaken
		}
	}

	existing.Name = task.Name
	existing.Description = task.Description
	existing.ExecutorID = task.ExecutorID
	existing.StatusID = task.StatusID
	if err := r.checkRefs(&existing, labelIDs); err != nil {
		return err
	}

	r.s.tasks[task.ID] = existing
	r.s.taskLabels[task.ID] = append([]int64(nil), labelIDs...)
	return nil
}

func (r taskRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	delete(r.s.taskLabels, id)
	return nil
}

func (r taskRepo) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*entities.Task{}
	for _, t := range r.s.tasks {
		if filter.StatusID != nil && t.StatusID != *filter.StatusID {
			continue
		}
		if filter.ExecutorID != nil && t.ExecutorID != *filter.ExecutorID {
			continue
		}
		if filter.AuthorID != nil && t.AuthorID != *filter.AuthorID {
			continue
		}
		task := r.hydrate(t)
		if filter.LabelID != nil && !task.HasLabel(*filter.LabelID) {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// hydrate must be called with the lock held
func (r taskRepo) hydrate(t entities.Task) *entities.Task {
	if u, ok := r.s.users[t.AuthorID]; ok {
		t.Author = &u
	}
	if u, ok := r.s.users[t.ExecutorID]; ok {
		t.Executor = &u
	}
	if st, ok := r.s.statuses[t.StatusID]; ok {
		t.Status = &st
	}

	t.Labels = []entities.Label{}
	ids := append([]int64(nil), r.s.taskLabels[t.ID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if l, ok := r.s.labels[id]; ok {
			t.Labels = append(t.Labels, l)
		}
	}
	return &t
}

func stripRelations(t entities.Task) entities.Task {
	t.Author, t.Executor, t.Status, t.Labels = nil, nil, nil, nil
	return t
}
