package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"global_explorer/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type commentInput struct {
	Author string `validate:"required,max=50"`
	Rating int    `validate:"required,min=1,max=5"`
	Text   string `validate:"required,max=500"`
}

// CommentStore keeps every comment of every city in one JSON array.
type CommentStore struct {
	mu  sync.Mutex
	kv  domain.KeyValueStore
	pub domain.Publisher
	now func() time.Time
}

// NewCommentStore accepts a nil publisher and a nil clock.
func NewCommentStore(kv domain.KeyValueStore, pub domain.Publisher, now func() time.Time) *CommentStore {
	if pub == nil {
		pub = nopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &CommentStore{kv: kv, pub: pub, now: now}
}

// Add validates and appends a comment. Author and text are stored trimmed.
// On validation failure nothing is written.
func (s *CommentStore) Add(ctx context.Context, cityID int64, author string, rating int, text string) (domain.Comment, error) {
	in := commentInput{Author: strings.TrimSpace(author), Rating: rating, Text: strings.TrimSpace(text)}
	if err := validate.Struct(in); err != nil {
		return domain.Comment{}, validationError(err)
	}

	c := domain.Comment{
		ID:        uuid.NewString(),
		CityID:    cityID,
		Author:    in.Author,
		Rating:    in.Rating,
		Text:      in.Text,
		Timestamp: s.now().UnixMilli(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load(ctx)
	if err != nil {
		return domain.Comment{}, err
	}
	if err := writeJSON(ctx, s.kv, CommentsKey, append(all, c)); err != nil {
		return domain.Comment{}, err
	}
	s.pub.Publish(domain.Event{Kind: domain.EventComments, CityID: cityID})
	return c, nil
}

// MarkHelpful increments the helpful counter. An unknown id is a no-op and
// returns found=false.
func (s *CommentStore) MarkHelpful(ctx context.Context, id string) (domain.Comment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return domain.Comment{}, false, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		all[i].Helpful++
		if err := writeJSON(ctx, s.kv, CommentsKey, all); err != nil {
			return domain.Comment{}, false, err
		}
		s.pub.Publish(domain.Event{Kind: domain.EventComments, CityID: all[i].CityID})
		return all[i], true, nil
	}
	return domain.Comment{}, false, nil
}

// Remove deletes by id; an unknown id is a no-op.
func (s *CommentStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]domain.Comment, 0, len(all))
	var cityID int64
	for _, c := range all {
		if c.ID == id {
			cityID = c.CityID
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == len(all) {
		return nil
	}
	if err := writeJSON(ctx, s.kv, CommentsKey, kept); err != nil {
		return err
	}
	s.pub.Publish(domain.Event{Kind: domain.EventComments, CityID: cityID})
	return nil
}

// ListByCity returns the city's comments newest first.
func (s *CommentStore) ListByCity(ctx context.Context, cityID int64) ([]domain.Comment, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0)
	for _, c := range all {
		if c.CityID == cityID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// Aggregate reports the mean rating rounded to one decimal (0 without
// comments) and a histogram that always carries buckets 1 through 5.
func (s *CommentStore) Aggregate(ctx context.Context, cityID int64) (domain.RatingSummary, error) {
	cs, err := s.ListByCity(ctx, cityID)
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return summarize(cs), nil
}

func summarize(cs []domain.Comment) domain.RatingSummary {
	sum := domain.RatingSummary{Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(cs) == 0 {
		return sum
	}
	total := 0
	for _, c := range cs {
		total += c.Rating
		if _, ok := sum.Histogram[c.Rating]; ok {
			sum.Histogram[c.Rating]++
		}
	}
	sum.Count = len(cs)
	sum.Average = math.Round(float64(total)/float64(len(cs))*10) / 10
	return sum
}

func (s *CommentStore) load(ctx context.Context) ([]domain.Comment, error) {
	var all []domain.Comment
	ok, err := readJSON(ctx, s.kv, CommentsKey, &all)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return all, nil
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fe := ves[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	case "max":
		if field == "rating" {
			return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
		}
		return fmt.Errorf("%w: %s must be at most %s characters", domain.ErrValidation, field, fe.Param())
	case "min":
		return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}
	return fmt.Errorf("%w: %s is invalid", domain.ErrValidation, field)
}
