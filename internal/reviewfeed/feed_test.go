package reviewfeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"estates/internal/store"
)

// In-memory stand-ins for the pg-backed stores. The vote fake routes
// every press through store.NextVoteOp so its transitions stay in step
// with the real toggle.

type fakeReviews struct {
	nextID  int64
	reviews []store.Review
	votes   *fakeVotes
	clock   time.Time
}

func (f *fakeReviews) Create(_ context.Context, r *store.Review) error {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	r.ID = f.nextID
	r.CreatedAt = f.clock
	r.UpdatedAt = f.clock
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f *fakeReviews) GetByProperty(_ context.Context, propertyID int64) ([]store.Review, error) {
	var out []store.Review
	for i := len(f.reviews) - 1; i >= 0; i-- { // newest first
		r := f.reviews[i]
		if r.PropertyID != propertyID {
			continue
		}
		r.Likes, r.Dislikes = f.votes.tally(r.ID)
		r.HelpfulCount = r.Likes
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReviews) GetByID(_ context.Context, reviewID int64) (*store.Review, error) {
	for _, r := range f.reviews {
		if r.ID == reviewID {
			cp := r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeReviews) Delete(_ context.Context, reviewID, userID int64) error {
	for i, r := range f.reviews {
		if r.ID == reviewID && r.UserID == userID {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeReviews) Stats(_ context.Context, propertyID int64) (int, float64, error) {
	var count, sum int
	for _, r := range f.reviews {
		if r.PropertyID == propertyID {
			count++
			sum += r.Rating
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, float64(sum) / float64(count), nil
}

func (f *fakeReviews) HasReview(_ context.Context, propertyID, userID int64) (bool, error) {
	for _, r := range f.reviews {
		if r.PropertyID == propertyID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeReplies struct {
	nextID  int64
	replies map[int64][]store.Reply
	clock   time.Time
}

func (f *fakeReplies) Create(_ context.Context, r *store.Reply) error {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	r.ID = f.nextID
	r.CreatedAt = f.clock
	f.replies[r.ReviewID] = append(f.replies[r.ReviewID], *r)
	return nil
}

func (f *fakeReplies) GetByReview(_ context.Context, reviewID int64) ([]store.Reply, error) {
	return append([]store.Reply(nil), f.replies[reviewID]...), nil
}

type voteKey struct{ reviewID, userID int64 }

type fakeVotes struct {
	nextID int64
	rows   map[voteKey]store.Vote
}

func (f *fakeVotes) Get(_ context.Context, reviewID, userID int64) (*store.Vote, error) {
	if v, ok := f.rows[voteKey{reviewID, userID}]; ok {
		cp := v
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeVotes) Toggle(_ context.Context, reviewID, userID int64, kind store.VoteKind) (store.VoteState, error) {
	key := voteKey{reviewID, userID}
	var current *store.Vote
	if v, ok := f.rows[key]; ok {
		cp := v
		current = &cp
	}

	op, state := store.NextVoteOp(current, kind)
	switch op {
	case store.VoteOpInsert:
		f.nextID++
		f.rows[key] = store.Vote{ID: f.nextID, ReviewID: reviewID, UserID: userID, Kind: kind}
	case store.VoteOpDelete:
		delete(f.rows, key)
	case store.VoteOpSwitch:
		v := f.rows[key]
		v.Kind = kind
		f.rows[key] = v
	}
	return state, nil
}

func (f *fakeVotes) tally(reviewID int64) (likes, dislikes int) {
	for _, v := range f.rows {
		if v.ReviewID != reviewID {
			continue
		}
		if v.Kind == store.VoteLike {
			likes++
		} else {
			dislikes++
		}
	}
	return likes, dislikes
}

func (f *fakeVotes) rowCount(reviewID, userID int64) int {
	n := 0
	for k := range f.rows {
		if k.reviewID == reviewID && k.userID == userID {
			n++
		}
	}
	return n
}

type fixture struct {
	svc     *Service
	reviews *fakeReviews
	replies *fakeReplies
	votes   *fakeVotes
}

func newFixture(cfg Config) *fixture {
	votes := &fakeVotes{rows: map[voteKey]store.Vote{}}
	reviews := &fakeReviews{votes: votes, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	replies := &fakeReplies{replies: map[int64][]store.Reply{}, clock: reviews.clock}

	storage := store.Storage{
		Reviews: reviews,
		Replies: replies,
		Votes:   votes,
	}
	return &fixture{
		svc:     NewService(storage, cfg),
		reviews: reviews,
		replies: replies,
		votes:   votes,
	}
}

func testUser(id int64, first, last string) *store.User {
	return &store.User{ID: id, FirstName: first, LastName: last}
}

func mustSubmit(t *testing.T, f *fixture, user *store.User, propertyID int64, rating int) *store.Review {
	t.Helper()
	review, err := f.svc.SubmitReview(context.Background(), user, propertyID, rating, "Solid place", "Would rent again.")
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}
	return review
}

func TestSubmitReviewSnapshotsAuthorName(t *testing.T) {
	f := newFixture(Config{})
	user := testUser(1, "Asha", "Rai")

	review := mustSubmit(t, f, user, 10, 5)

	if review.AuthorName != "Asha Rai" {
		t.Errorf("author name = %q, want %q", review.AuthorName, "Asha Rai")
	}
	if review.ID == 0 {
		t.Error("review was not assigned an ID")
	}
}

func TestSubmitReviewValidation(t *testing.T) {
	f := newFixture(Config{})
	user := testUser(1, "Asha", "")

	tests := []struct {
		name   string
		rating int
		title  string
		body   string
	}{
		{"rating too low", 0, "Title", "Body"},
		{"rating too high", 6, "Title", "Body"},
		{"empty title", 4, "   ", "Body"},
		{"empty body", 4, "Title", "\t\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitReview(context.Background(), user, 10, tc.rating, tc.title, tc.body)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(f.reviews.reviews) != 0 {
		t.Errorf("%d reviews stored after rejected submissions, want 0", len(f.reviews.reviews))
	}
}

func TestAnonymousWritesRejected(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	if _, err := f.svc.SubmitReview(ctx, nil, 10, 5, "Title", "Body"); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("SubmitReview err = %v, want ErrAuthRequired", err)
	}
	if _, err := f.svc.Vote(ctx, nil, 1, store.VoteLike); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Vote err = %v, want ErrAuthRequired", err)
	}
	if _, _, err := f.svc.Reply(ctx, nil, 1, "hello"); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Reply err = %v, want ErrAuthRequired", err)
	}

	if len(f.reviews.reviews) != 0 || len(f.votes.rows) != 0 || len(f.replies.replies) != 0 {
		t.Error("anonymous request reached the store")
	}
}

func TestSingleReviewPerUserPolicy(t *testing.T) {
	user := testUser(1, "Asha", "")

	t.Run("enabled rejects second review", func(t *testing.T) {
		f := newFixture(Config{SingleReviewPerUser: true})
		mustSubmit(t, f, user, 10, 4)

		_, err := f.svc.SubmitReview(context.Background(), user, 10, 2, "Changed my mind", "Worse than I thought.")
		if !errors.Is(err, ErrAlreadyReviewed) {
			t.Fatalf("err = %v, want ErrAlreadyReviewed", err)
		}
		if len(f.reviews.reviews) != 1 {
			t.Errorf("%d reviews stored, want 1", len(f.reviews.reviews))
		}
	})

	t.Run("disabled allows repeat reviews", func(t *testing.T) {
		f := newFixture(Config{})
		mustSubmit(t, f, user, 10, 4)
		mustSubmit(t, f, user, 10, 2)

		if len(f.reviews.reviews) != 2 {
			t.Errorf("%d reviews stored, want 2", len(f.reviews.reviews))
		}
	})
}

func TestVoteToggle(t *testing.T) {
	f := newFixture(Config{})
	author := testUser(1, "Asha", "")
	voter := testUser(2, "Bikram", "")
	ctx := context.Background()

	review := mustSubmit(t, f, author, 10, 5)

	state, err := f.svc.Vote(ctx, voter, review.ID, store.VoteLike)
	if err != nil {
		t.Fatalf("first press: %v", err)
	}
	if state != store.VoteStateLiked {
		t.Errorf("state after first press = %q, want liked", state)
	}
	if n := f.votes.rowCount(review.ID, voter.ID); n != 1 {
		t.Errorf("vote rows = %d, want 1", n)
	}

	// Same kind again removes the vote.
	state, err = f.svc.Vote(ctx, voter, review.ID, store.VoteLike)
	if err != nil {
		t.Fatalf("second press: %v", err)
	}
	if state != store.VoteStateNone {
		t.Errorf("state after second press = %q, want none", state)
	}
	if n := f.votes.rowCount(review.ID, voter.ID); n != 0 {
		t.Errorf("vote rows = %d, want 0", n)
	}
}

func TestVoteSwitchKeepsOneRow(t *testing.T) {
	f := newFixture(Config{})
	author := testUser(1, "Asha", "")
	voter := testUser(2, "Bikram", "")
	ctx := context.Background()

	review := mustSubmit(t, f, author, 10, 5)

	if _, err := f.svc.Vote(ctx, voter, review.ID, store.VoteLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	state, err := f.svc.Vote(ctx, voter, review.ID, store.VoteDislike)
	if err != nil {
		t.Fatalf("switch to dislike: %v", err)
	}

	if state != store.VoteStateDisliked {
		t.Errorf("state = %q, want disliked", state)
	}
	if n := f.votes.rowCount(review.ID, voter.ID); n != 1 {
		t.Errorf("vote rows = %d, want exactly 1 after switch", n)
	}
	likes, dislikes := f.votes.tally(review.ID)
	if likes != 0 || dislikes != 1 {
		t.Errorf("tally = %d likes / %d dislikes, want 0/1", likes, dislikes)
	}
}

func TestVoteRejectsUnknownKind(t *testing.T) {
	f := newFixture(Config{})
	voter := testUser(2, "Bikram", "")

	_, err := f.svc.Vote(context.Background(), voter, 1, store.VoteKind("love"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(f.votes.rows) != 0 {
		t.Error("invalid kind reached the store")
	}
}

func TestSnapshotAggregates(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	r1, _ := f.svc.SubmitReview(ctx, testUser(1, "A", ""), 10, 5, "Great", "body")
	f.svc.SubmitReview(ctx, testUser(2, "B", ""), 10, 3, "Okay", "body")
	f.svc.SubmitReview(ctx, testUser(3, "C", ""), 10, 4, "Good", "body")

	snap, err := f.svc.Load(ctx, 10, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if snap.ReviewCount != 3 {
		t.Errorf("count = %d, want 3", snap.ReviewCount)
	}
	if snap.Average != 4.0 {
		t.Errorf("average = %v, want 4.0", snap.Average)
	}
	if len(snap.Reviews) != 3 {
		t.Fatalf("reviews in snapshot = %d, want 3", len(snap.Reviews))
	}
	// Newest first: the last submission leads.
	if snap.Reviews[0].Title != "Good" || snap.Reviews[2].ID != r1.ID {
		t.Errorf("reviews not ordered newest first: %q first", snap.Reviews[0].Title)
	}
}

func TestSnapshotEmptyProperty(t *testing.T) {
	f := newFixture(Config{})

	snap, err := f.svc.Load(context.Background(), 99, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.ReviewCount != 0 || snap.Average != 0 {
		t.Errorf("empty property stats = %d / %v, want 0 / 0", snap.ReviewCount, snap.Average)
	}
	if len(snap.Reviews) != 0 {
		t.Errorf("reviews = %d, want 0", len(snap.Reviews))
	}
}

func TestRepliesInConversationOrder(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	author := testUser(1, "Asha", "")

	review := mustSubmit(t, f, author, 10, 5)

	for i, body := range []string{"first", "second", "third"} {
		replier := testUser(int64(10+i), "R", "")
		if _, _, err := f.svc.Reply(ctx, replier, review.ID, body); err != nil {
			t.Fatalf("reply %q: %v", body, err)
		}
	}

	snap, err := f.svc.Load(ctx, 10, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	replies := snap.Reviews[0].Replies
	if len(replies) != 3 {
		t.Fatalf("replies = %d, want 3", len(replies))
	}
	for i, want := range []string{"first", "second", "third"} {
		if replies[i].Body != want {
			t.Errorf("reply[%d] = %q, want %q", i, replies[i].Body, want)
		}
	}
}

func TestReplyReturnsParentReview(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	author := testUser(1, "Asha", "Rai")
	replier := testUser(2, "Bikram", "")

	review := mustSubmit(t, f, author, 10, 5)

	reply, parent, err := f.svc.Reply(ctx, replier, review.ID, "  thanks for sharing  ")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if parent.ID != review.ID || parent.UserID != author.ID {
		t.Errorf("parent review = %+v, want review %d by user %d", parent, review.ID, author.ID)
	}
	if reply.Body != "thanks for sharing" {
		t.Errorf("reply body = %q, want trimmed text", reply.Body)
	}
	if reply.AuthorName != "Bikram" {
		t.Errorf("reply author = %q, want %q", reply.AuthorName, "Bikram")
	}
}

func TestReplyToMissingReview(t *testing.T) {
	f := newFixture(Config{})

	_, _, err := f.svc.Reply(context.Background(), testUser(2, "B", ""), 404, "hello")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotCarriesActorVote(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	author := testUser(1, "Asha", "")
	voter := testUser(2, "Bikram", "")

	review := mustSubmit(t, f, author, 10, 5)
	if _, err := f.svc.Vote(ctx, voter, review.ID, store.VoteDislike); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	snap, err := f.svc.Load(ctx, 10, voter)
	if err != nil {
		t.Fatalf("Load as voter: %v", err)
	}
	if snap.Reviews[0].UserVote != store.VoteStateDisliked {
		t.Errorf("voter sees %q, want disliked", snap.Reviews[0].UserVote)
	}

	snap, err = f.svc.Load(ctx, 10, nil)
	if err != nil {
		t.Fatalf("Load anonymously: %v", err)
	}
	if snap.Reviews[0].UserVote != store.VoteStateNone {
		t.Errorf("anonymous viewer sees %q, want none", snap.Reviews[0].UserVote)
	}
	if snap.Reviews[0].Dislikes != 1 {
		t.Errorf("dislike tally = %d, want 1", snap.Reviews[0].Dislikes)
	}
}

func TestFeedScenario(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	asha := testUser(1, "Asha", "Rai")
	bikram := testUser(2, "Bikram", "Thapa")
	chandra := testUser(3, "Chandra", "")

	first := mustSubmit(t, f, asha, 42, 5)
	second, err := f.svc.SubmitReview(ctx, bikram, 42, 3, "Average", "Noisy street.")
	if err != nil {
		t.Fatalf("second review: %v", err)
	}

	if _, _, err := f.svc.Reply(ctx, bikram, first.ID, "Agreed about the balcony."); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := f.svc.Vote(ctx, chandra, first.ID, store.VoteLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := f.svc.Vote(ctx, chandra, second.ID, store.VoteDislike); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	// Chandra reconsiders the dislike.
	if _, err := f.svc.Vote(ctx, chandra, second.ID, store.VoteDislike); err != nil {
		t.Fatalf("undo dislike: %v", err)
	}

	snap, err := f.svc.Load(ctx, 42, chandra)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if snap.ReviewCount != 2 || snap.Average != 4.0 {
		t.Errorf("stats = %d / %v, want 2 / 4.0", snap.ReviewCount, snap.Average)
	}

	// Newest first: Bikram's review leads.
	if snap.Reviews[0].ID != second.ID {
		t.Fatalf("first review in feed = %d, want %d", snap.Reviews[0].ID, second.ID)
	}
	if snap.Reviews[0].Dislikes != 0 || snap.Reviews[0].UserVote != store.VoteStateNone {
		t.Errorf("undone dislike still visible: tally %d, state %q", snap.Reviews[0].Dislikes, snap.Reviews[0].UserVote)
	}

	older := snap.Reviews[1]
	if older.Likes != 1 || older.UserVote != store.VoteStateLiked {
		t.Errorf("older review: likes %d state %q, want 1 liked", older.Likes, older.UserVote)
	}
	if len(older.Replies) != 1 || older.Replies[0].AuthorName != "Bikram Thapa" {
		t.Errorf("older review replies = %+v, want one by Bikram Thapa", older.Replies)
	}
}
