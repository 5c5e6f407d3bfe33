package service

import (
	"context"
	"errors"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/model"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"
)

// ErrNotFound is returned when no post has the requested id.
var ErrNotFound = errors.New("post not found")

// Change kinds handed to a Publisher.
const (
	EventCreated = "POST_CREATED"
	EventUpdated = "POST_UPDATED"
	EventDeleted = "POST_DELETED"
)

// Publisher receives a notification after every successful write.
type Publisher interface {
	Publish(kind, postID string, payload any)
}

type PostService struct {
	Store  repository.PostStore
	Events Publisher // optional
}

func NewPostService(store repository.PostStore, events Publisher) *PostService {
	return &PostService{Store: store, Events: events}
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.Post, error) {
	docs, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]model.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, NormalizeForRead(doc))
	}
	return posts, nil
}

// GetPost answers ids no store could hold as not found without a lookup.
func (s *PostService) GetPost(ctx context.Context, id string) (model.Post, error) {
	if !storableText(id) {
		return model.Post{}, ErrNotFound
	}
	doc, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if !found {
		return model.Post{}, ErrNotFound
	}
	return NormalizeForRead(doc), nil
}

// CreatePost validates body and stores it. The id and createdAt always come
// from the store.
func (s *PostService) CreatePost(ctx context.Context, body map[string]any) (string, error) {
	fields, err := ValidateWriteFields(body)
	if err != nil {
		return "", err
	}
	id, err := s.Store.Create(ctx, fields.Map())
	if err != nil {
		return "", err
	}
	logger.Sugar.Infof("Created post %s", id)
	s.publishPost(ctx, EventCreated, id)
	return id, nil
}

// UpdatePost overwrites title, content and author of an existing post.
func (s *PostService) UpdatePost(ctx context.Context, id string, body map[string]any) error {
	fields, err := ValidateWriteFields(body)
	if err != nil {
		return err
	}
	if !storableText(id) {
		return ErrNotFound
	}
	found, err := s.Store.UpdateByID(ctx, id, fields.Map())
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	logger.Sugar.Infof("Updated post %s", id)
	s.publishPost(ctx, EventUpdated, id)
	return nil
}

func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if !storableText(id) {
		return ErrNotFound
	}
	found, err := s.Store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	logger.Sugar.Infof("Deleted post %s", id)
	if s.Events != nil {
		s.Events.Publish(EventDeleted, id, map[string]string{"id": id})
	}
	return nil
}

// publishPost sends the freshly written post. If it cannot be re-read the
// event is dropped.
func (s *PostService) publishPost(ctx context.Context, kind, id string) {
	if s.Events == nil {
		return
	}
	post, err := s.GetPost(ctx, id)
	if err != nil {
		logger.Sugar.Warnf("Skipping %s event for post %s: %v", kind, id, err)
		return
	}
	s.Events.Publish(kind, id, post)
}
