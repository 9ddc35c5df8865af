package repositories

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-folded LIKE pattern matching s anywhere.
// Wildcards in s match literally; pair it with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// userSummaryColumns projects a users row with its derived counts.
const userSummaryColumns = `users.id, users.name, users.image, users.bio, users.created_at,
	(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id) AS posts_count,
	(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS followers_count`
