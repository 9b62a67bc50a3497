package planner

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeHashtag(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    string
		wantErr bool
	}{
		"adds prefix":      {in: "fyp", want: "#fyp"},
		"keeps prefix":     {in: "#fyp", want: "#fyp"},
		"trims whitespace": {in: "  travel ", want: "#travel"},
		"keeps case":       {in: "GoLang", want: "#GoLang"},
		"empty":            {in: "", wantErr: true},
		"blank":            {in: "   ", wantErr: true},
		"only prefix":      {in: "#", wantErr: true},
		"repeated prefix":  {in: "##", wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeHashtag(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestUpsertHashtagIncrements(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	first, err := p.Hashtags.Upsert(ctx, alice, "#fyp")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.UsageCount != 1 {
		t.Fatalf("expected count 1 got %d", first.UsageCount)
	}

	second, err := p.Hashtags.Upsert(ctx, bob, "fyp")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Name != "#fyp" || second.UsageCount != 2 {
		t.Fatalf("expected #fyp with count 2 got %+v", second)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("createdAt changed on increment: %d -> %d", first.CreatedAt, second.CreatedAt)
	}

	tags, err := p.Hashtags.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected one hashtag got %+v", tags)
	}
}

func TestUpsertHashtagRejects(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	if _, err := p.Hashtags.Upsert(ctx, alice, "#"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
	if _, err := p.Hashtags.Upsert(ctx, "", "fyp"); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission for guest got %v", err)
	}

	tags, _ := p.Hashtags.List(ctx)
	if len(tags) != 0 {
		t.Fatalf("expected no hashtags got %+v", tags)
	}
}

func TestListHashtagsForOwner(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	mustAddIdea(t, p, alice, "One", "travel", "food")
	mustAddIdea(t, p, alice, "Two", "food", "#vlog")
	mustAddIdea(t, p, bob, "Other", "cats")

	tags, err := p.Hashtags.ListForOwner(ctx, alice, "")
	if err != nil {
		t.Fatalf("list for owner: %v", err)
	}

	want := []string{"#travel", "#food", "#vlog"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v got %+v", want, tags)
	}
	for i, tag := range tags {
		if tag.Name != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], tag.Name)
		}
	}
	if tags[1].UsageCount != 2 {
		t.Fatalf("expected #food used twice got %d", tags[1].UsageCount)
	}

	if _, err := p.Hashtags.ListForOwner(ctx, bob, alice); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission got %v", err)
	}
	adminView, err := p.Hashtags.ListForOwner(ctx, root, bob)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminView) != 1 || adminView[0].Name != "#cats" {
		t.Fatalf("unexpected admin view %+v", adminView)
	}
}
