package notifications

import (
	"context"
	"fmt"
	"strconv"

	"estates/internal/store"

	"github.com/9ssi7/exponent"
)

// NotifyReviewReply tells a review's author someone replied to their
// review. Authors without registered push tokens are simply skipped.
func NotifyReviewReply(ctx context.Context, push PushSender, storage store.Storage, review *store.Review, replierName string) error {
	tokensMap, err := storage.PushTokens.GetByUserIDs(ctx, []int64{review.UserID})
	if err != nil {
		return err
	}
	tokens := dedupe(tokensMap[review.UserID])
	if len(tokens) == 0 {
		return nil
	}

	title := "New reply to your review"
	body := fmt.Sprintf("%s replied to your review of property #%d", replierName, review.PropertyID)
	screen := fmt.Sprintf("properties/%s/reviews", strconv.FormatInt(review.PropertyID, 10))

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":      "review_reply",
				"review_id": strconv.FormatInt(review.ID, 10),
				"screen":    screen,
			},
		})
	}

	if _, err := push.Publish(ctx, msgs); err != nil {
		return fmt.Errorf("publish review reply notification: %w", err)
	}
	return nil
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
