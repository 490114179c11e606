package vcs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		Link     string
		Expected Link
	}{
		{
			"git+https://github.com/requests/requests.git@v2.20.1#egg=requests",
			Link{VCS: Git, URL: "https://github.com/requests/requests.git", Ref: "v2.20.1", Name: "requests"},
		},
		{
			"git+https://github.com/django/django.git#egg=django",
			Link{VCS: Git, URL: "https://github.com/django/django.git", Name: "django"},
		},
		{
			"git+ssh://git@github.com/owner/repo.git#egg=repo",
			Link{VCS: Git, URL: "ssh://git@github.com/owner/repo.git", Name: "repo"},
		},
		{
			"git+ssh://git@github.com/owner/repo.git@master#egg=repo",
			Link{VCS: Git, URL: "ssh://git@github.com/owner/repo.git", Ref: "master", Name: "repo"},
		},
		{
			"hg+https://hg.example.com/repo@a1b2c3#egg=thing&subdirectory=src",
			Link{VCS: Mercurial, URL: "https://hg.example.com/repo", Ref: "a1b2c3", Name: "thing"},
		},
		{
			"svn+svn://svn.example.com/project/trunk#egg=project",
			Link{VCS: Subversion, URL: "svn://svn.example.com/project/trunk", Name: "project"},
		},
	}

	for _, c := range cases {
		l, err := Decode(c.Link)
		require.NoErrorf(t, err, "link %q", c.Link)
		assert.Equal(t, c.Expected, l)
	}
}

func TestDecode_Errors(t *testing.T) {
	links := []string{
		"https://github.com/divio/django-cms/archive/release/3.4.x.zip",
		"git+https://github.com/django/django.git@1.11.4",
		"git+https://github.com/django/django.git@1.11.4#name=django",
		"+https://github.com/django/django.git#egg=django",
		"git+#egg=django",
		"git+https://github.com/django/django.git#egg=",
		"git#egg=django+",
	}
	for _, link := range links {
		_, err := Decode(link)
		var de *LinkDecodeError
		if assert.Errorf(t, err, "link %q", link) {
			assert.True(t, errors.As(err, &de))
			assert.Equal(t, link, de.Link)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	links := []Link{
		{VCS: Git, URL: "https://github.com/requests/requests.git", Ref: "v2.20.1", Name: "requests"},
		{VCS: Git, URL: "ssh://git@github.com/owner/repo.git", Ref: "0f3a2c1", Name: "repo"},
		{VCS: Bazaar, URL: "lp:bzr-project", Ref: "revno-12", Name: "bzr-project"},
		{VCS: Mercurial, URL: "https://hg.example.com/a@b", Ref: "tip", Name: "thing"},
	}
	for _, l := range links {
		decoded, err := Decode(Encode(l))
		require.NoError(t, err)
		assert.Equal(t, l, decoded)
	}

	assert.Equal(t, "git+https://github.com/django/django.git#egg=django",
		Link{VCS: Git, URL: "https://github.com/django/django.git", Name: "django"}.String())
}

func TestIsLink(t *testing.T) {
	assert.True(t, IsLink("git+https://github.com/django/django.git#egg=django"))
	assert.True(t, IsLink("bzr+lp:project#egg=project"))
	assert.False(t, IsLink("https://github.com/divio/django-cms/archive/release/3.4.x.zip"))
	assert.False(t, IsLink("cvs+pserver://example.com#egg=x"))
}

func FuzzDecodeEncode(f *testing.F) {
	f.Add("git", "https://github.com/requests/requests.git", "v2.20.1", "requests")
	f.Add("hg", "https://hg.example.com/a@b", "tip", "thing")
	f.Fuzz(func(t *testing.T, kind, url, ref, name string) {
		l := Link{VCS: Kind(kind), URL: url, Ref: ref, Name: name}
		if kind == "" || url == "" || ref == "" || name == "" {
			t.Skip()
		}
		for _, s := range []string{kind, url, ref, name} {
			if strings.ContainsAny(s, "+#&") {
				t.Skip()
			}
		}
		if strings.ContainsAny(ref, "@/") || strings.ContainsAny(kind, "@/") {
			t.Skip()
		}
		decoded, err := Decode(Encode(l))
		if err != nil {
			t.Fatalf("decode of encoded %+v failed: %v", l, err)
		}
		if decoded != l {
			t.Fatalf("round trip changed %+v into %+v", l, decoded)
		}
	})
}
