// Package seed loads the demo accounts and their posts, comments, follows
// and likes. Running it twice leaves the data unchanged.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

type account struct {
	key, name, email, image, bio string
	createdAt                    time.Time
}

type post struct {
	key, author, caption, image string
	createdAt                   time.Time
}

type comment struct {
	author, post, content string
	createdAt             time.Time
}

type edge struct {
	from, to string
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	accounts = []account{
		{"u1", "김민수", "demo1@example.com", "/demo-avatars/user1.jpg", "사진을 좋아하는 개발자입니다 📸", day(2024, 1, 15)},
		{"u2", "이지은", "demo2@example.com", "/demo-avatars/user2.jpg", "여행과 맛집을 기록하는 일상 블로거 ✈️", day(2024, 2, 20)},
		{"u3", "박서준", "demo3@example.com", "/demo-avatars/user3.jpg", "운동과 건강을 추구하는 개발자 💪", day(2024, 3, 10)},
	}
	posts = []post{
		{"p1", "u1", "오늘의 맛집 발견! #맛집 #일상 #데이트", "/demo-images/post1.jpg", day(2025, 9, 1)},
		{"p2", "u2", "여행 중 찍은 사진 📸 #여행 #바다 #휴가", "/demo-images/post2.jpg", day(2025, 9, 2)},
		{"p3", "u3", "운동 후 기분 좋은 하루! #운동 #건강 #일상", "/demo-images/post3.jpg", day(2025, 9, 3)},
	}
	comments = []comment{
		{"u2", "p1", "와 맛있어 보이네요! 어디인가요?", day(2025, 9, 1)},
		{"u3", "p1", "저도 가보고 싶어요!", day(2025, 9, 2)},
	}
	follows = []edge{{"u1", "u2"}, {"u2", "u3"}, {"u3", "u1"}}
	// likes map a user key to a post key.
	likes = []edge{{"u2", "p1"}, {"u3", "p1"}, {"u1", "p2"}, {"u1", "p3"}}
)

// Summary counts the rows created by a run.
type Summary struct {
	Users, Posts, Comments, Follows, Likes int
}

// Run inserts the demo data. Accounts are matched by email; posts and
// comments are only created for accounts created by this run.
func Run(ctx context.Context, db *gorm.DB) (Summary, error) {
	var sum Summary
	userRepo := repositories.NewPostgresUserRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	likeRepo := repositories.NewPostgresLikeRepository(db)

	userIDs := make(map[string]uint, len(accounts))
	fresh := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		existing, err := userRepo.GetUserByEmail(ctx, a.email)
		switch {
		case err == nil:
			userIDs[a.key] = existing.ID
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return sum, err
		}

		u := &models.User{Name: a.name, Email: a.email, Image: a.image, Bio: a.bio, CreatedAt: a.createdAt}
		if err := userRepo.CreateUser(ctx, u); err != nil {
			return sum, err
		}
		userIDs[a.key] = u.ID
		fresh[a.key] = true
		sum.Users++
	}

	postIDs := make(map[string]uint, len(posts))
	for _, p := range posts {
		if !fresh[p.author] {
			continue
		}
		row := &models.Post{AuthorID: userIDs[p.author], Caption: p.caption, ImageURL: p.image, CreatedAt: p.createdAt}
		if err := postRepo.CreatePost(ctx, row); err != nil {
			return sum, err
		}
		postIDs[p.key] = row.ID
		sum.Posts++
	}

	for _, c := range comments {
		postID, ok := postIDs[c.post]
		if !ok {
			continue
		}
		row := &models.Comment{PostID: postID, UserID: userIDs[c.author], Content: c.content, CreatedAt: c.createdAt}
		if err := commentRepo.CreateComment(ctx, row); err != nil {
			return sum, err
		}
		sum.Comments++
	}

	for _, f := range follows {
		created, err := followRepo.CreateFollow(ctx, &models.Follow{FollowerID: userIDs[f.from], FollowingID: userIDs[f.to]})
		if err != nil {
			return sum, fmt.Errorf("seed follow %s->%s: %w", f.from, f.to, err)
		}
		if created {
			sum.Follows++
		}
	}

	for _, l := range likes {
		postID, ok := postIDs[l.to]
		if !ok {
			continue
		}
		created, err := likeRepo.CreateLike(ctx, &models.Like{UserID: userIDs[l.from], PostID: postID})
		if err != nil {
			return sum, fmt.Errorf("seed like %s->%s: %w", l.from, l.to, err)
		}
		if created {
			sum.Likes++
		}
	}

	logging.Ctx(ctx).Info().
		Int("users", sum.Users).
		Int("posts", sum.Posts).
		Int("comments", sum.Comments).
		Int("follows", sum.Follows).
		Int("likes", sum.Likes).
		Msg("demo data seeded")
	return sum, nil
}
