package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// seedFile is the YAML layout accepted by `quizctl seed`:
//
//	users:
//	  - {username: geography_quizzer, password: pw, quizzer: true}
//	  - {username: bob, password: pw}
//	quizzes:
//	  - author: geography_quizzer
//	    description: Geography quiz
//	    questions:
//	      - text: What's the capital of Belgium?
//	        choices:
//	          - {text: Brussels, correct: true}
//	          - {text: Zurich}
//	assignments:
//	  - {user: bob, quiz: Geography quiz}
type seedFile struct {
	Users   []seedUser `yaml:"users"`
	Quizzes []struct {
		Author      string `yaml:"author"`
		Description string `yaml:"description"`
		Questions   []struct {
			Text    string `yaml:"text"`
			Choices []struct {
				Text    string `yaml:"text"`
				Correct bool   `yaml:"correct"`
			} `yaml:"choices"`
		} `yaml:"questions"`
	} `yaml:"quizzes"`
	Assignments []seedAssignment `yaml:"assignments"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Quizzer  bool   `yaml:"quizzer"`
}

type seedAssignment struct {
	User string `yaml:"user"`
	Quiz string `yaml:"quiz"`
}

type seedResult struct {
	Users, Questions, Quizzes, Assignments int
}

func decodeSeed(r io.Reader) (seedFile, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("decode seed: %w", err)
	}
	return sf, nil
}

// applySeed creates the users, quizzes and assignments of sf through the
// service, so seeded data obeys the same rules as API writes. It can be run
// repeatedly: existing users, quizzes (same author and description) and
// assignments (same user and quiz) are reused, and res counts only new rows.
func applySeed(ctx context.Context, svc *quiz.Service, store quiz.Store, sf seedFile, hash func(string) (string, error)) (seedResult, error) {
	var res seedResult
	users := map[string]quiz.User{}
	for _, su := range sf.Users {
		if u, err := store.GetUserByUsername(ctx, su.Username); err == nil {
			users[u.Username] = u
			continue
		} else if !errors.Is(err, quiz.ErrNotFound) {
			return res, err
		}
		h, err := hash(su.Password)
		if err != nil {
			return res, err
		}
		u, err := svc.RegisterUser(ctx, su.Username, h, su.Quizzer)
		if err != nil {
			return res, fmt.Errorf("user %q: %w", su.Username, err)
		}
		users[u.Username] = u
		res.Users++
	}
	lookup := func(name string) (quiz.User, error) {
		if u, ok := users[name]; ok {
			return u, nil
		}
		u, err := store.GetUserByUsername(ctx, name)
		if err != nil {
			return quiz.User{}, fmt.Errorf("user %q: %w", name, err)
		}
		users[name] = u
		return u, nil
	}

	type quizOwner struct {
		quizID int64
		author rbac.Principal
	}
	quizzes := map[string]quizOwner{}
	for _, sq := range sf.Quizzes {
		author, err := lookup(sq.Author)
		if err != nil {
			return res, err
		}
		p := rbac.Principal{UserID: author.ID, Role: author.Role()}
		if id, ok, err := existingQuiz(ctx, store, author.ID, sq.Description); err != nil {
			return res, err
		} else if ok {
			quizzes[sq.Description] = quizOwner{quizID: id, author: p}
			continue
		}
		var ids []int64
		for _, qq := range sq.Questions {
			in := quiz.CreateQuestionInput{Text: qq.Text}
			for _, c := range qq.Choices {
				in.Choices = append(in.Choices, quiz.ChoiceSpec{Text: c.Text, IsCorrect: c.Correct})
			}
			q, err := svc.CreateQuestion(ctx, p, in)
			if err != nil {
				return res, fmt.Errorf("question %q: %w", qq.Text, err)
			}
			ids = append(ids, q.ID)
			res.Questions++
		}
		z, err := svc.CreateQuiz(ctx, p, quiz.CreateQuizInput{Description: sq.Description, Questions: ids})
		if err != nil {
			return res, fmt.Errorf("quiz %q: %w", sq.Description, err)
		}
		quizzes[sq.Description] = quizOwner{quizID: z.ID, author: p}
		res.Quizzes++
	}

	for _, sa := range sf.Assignments {
		z, ok := quizzes[sa.Quiz]
		if !ok {
			return res, fmt.Errorf("assignment: quiz %q is not defined in the seed file", sa.Quiz)
		}
		u, err := lookup(sa.User)
		if err != nil {
			return res, err
		}
		seen, err := store.ListAssignments(ctx, quiz.AssignmentListOpts{QuizID: z.quizID, UserID: u.ID})
		if err != nil {
			return res, err
		}
		if len(seen) > 0 {
			continue
		}
		if _, err := svc.CreateAssignment(ctx, z.author, quiz.CreateAssignmentInput{UserID: u.ID, QuizID: z.quizID}); err != nil {
			return res, fmt.Errorf("assignment %s/%s: %w", sa.User, sa.Quiz, err)
		}
		res.Assignments++
	}
	return res, nil
}

func existingQuiz(ctx context.Context, store quiz.Store, authorID int64, description string) (int64, bool, error) {
	list, err := store.ListQuizzes(ctx, quiz.QuizListOpts{AuthorID: authorID})
	if err != nil {
		return 0, false, err
	}
	for _, z := range list {
		if z.Description == description {
			return z.ID, true, nil
		}
	}
	return 0, false, nil
}
