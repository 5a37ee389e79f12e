// Seed inserts a small cohort of users and a batch of posts so the read and
// like paths have data to work with. Run from project root:
// go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialgrid/internal/config"
	"socialgrid/internal/database"
)

func main() {
	config.LoadEnvFile(".env")

	ctx := context.Background()
	db, err := database.Open(ctx, config.Get().DatabaseURL, 10)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed:", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db, database.SchemaUsers, database.SchemaPosts); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	const userCount = 50
	const postsPerUser = 20
	start := time.Now()

	userIDs := make([]string, userCount)
	for i := range userIDs {
		userIDs[i] = uuid.New().String()
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (id, username, first_name, last_name)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (username) DO NOTHING`,
			userIDs[i],
			fmt.Sprintf("seed_user_%d", i+1),
			fmt.Sprintf("Seed%d", i+1),
			"User",
		)
		if err != nil {
			fmt.Fprintln(os.Stderr, "User insert failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Inserted %d users\n", userCount)

	for batch, uid := range userIDs {
		args := make([]interface{}, 0, postsPerUser*3)
		placeholders := make([]string, 0, postsPerUser)
		for i := 0; i < postsPerUser; i++ {
			n := batch*postsPerUser + i + 1
			placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,NOW(),NOW())",
				3*i+1, 3*i+2, 3*i+3))
			args = append(args,
				uuid.New().String(),
				uid,
				fmt.Sprintf("Seed post %d", n),
			)
		}
		q := `INSERT INTO posts (id, author_id, content, created_at, updated_at) VALUES ` +
			strings.Join(placeholders, ",")
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			fmt.Fprintln(os.Stderr, "Post insert failed:", err)
			os.Exit(1)
		}
		fmt.Printf("\rInserted %d / %d posts", (batch+1)*postsPerUser, userCount*postsPerUser)
	}

	fmt.Printf("\nDone: %d users, %d posts in %v\n", userCount, userCount*postsPerUser, time.Since(start))
}
