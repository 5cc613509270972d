package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textbulker/textbulker/auth"
)

func canEdit(c auth.Caller) bool { return c.Can(auth.EditPosts) }

func TestRegisterMetaIsIdempotent(t *testing.T) {
	r := NewRegistry()
	args := Args{Type: TypeString, Single: true, ShowInREST: true, Auth: canEdit}

	r.RegisterMeta(ObjectPost, "rank_math_title", args)
	r.RegisterMeta(ObjectPost, "rank_math_title", args)

	assert.Equal(t, 1, r.Len(ObjectPost))
	assert.Equal(t, 0, r.Len("user"))
}

func TestFieldsSortedAndDefaultType(t *testing.T) {
	r := NewRegistry()
	r.RegisterMeta(ObjectPost, "b", Args{ShowInREST: true})
	r.RegisterMeta(ObjectPost, "a", Args{ShowInREST: true})

	fields := r.Fields(ObjectPost)
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, TypeString, fields[0].Type)
}

func TestReadableHonoursAuth(t *testing.T) {
	r := NewRegistry()
	r.RegisterMeta(ObjectPost, "_yoast_wpseo_title", Args{Single: true, ShowInREST: true, Auth: canEdit})
	r.RegisterMeta(ObjectPost, "hidden", Args{Single: true, ShowInREST: false})
	r.RegisterMeta(ObjectPost, "open", Args{Single: true, ShowInREST: true})

	assert.Equal(t, []string{"open"}, r.Readable(ObjectPost, auth.Anonymous))
	assert.Equal(t, []string{"_yoast_wpseo_title", "open"}, r.Readable(ObjectPost, auth.NewCaller("ed", auth.RoleEditor)))

	f, ok := r.Lookup(ObjectPost, "_yoast_wpseo_title")
	require.True(t, ok)
	assert.False(t, f.Allowed(auth.NewCaller("sub", auth.RoleSubscriber)))
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Plain title", "Plain title"},
		{"<b>Bold</b> title", "Bold title"},
		{"<script>alert(1)</script>Safe", "Safe"},
		{"  padded  ", "padded"},
		{"Q&A", "Q&A"},
		{`Tom & Jerry's "Q&A"`, `Tom & Jerry's "Q&A"`},
		{"<i>Fish</i> & chips", "Fish & chips"},
		{"a &lt;b&gt;x&lt;/b&gt; b", "a x b"},
		{"1 < 2", "1 < 2"},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.input); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
