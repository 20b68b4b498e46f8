package prreview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/server.go b/server.go
index 1111111..2222222 100644
--- a/server.go
+++ b/server.go
@@ -10,6 +10,8 @@ func handler(w http.ResponseWriter, r *http.Request) {
 	name := r.URL.Query().Get("name")
-	fmt.Fprintf(w, "hello "+name)
+	cmd := exec.Command("sh", "-c", "echo "+name)
+	out, _ := cmd.Output()
+	w.Write(out)
 	return
 }
diff --git a/util.go b/util.go
--- a/util.go
+++ b/util.go
@@ -1,3 +1,4 @@
 package main
+import "os/exec"

 func helper() {}
`

func TestParseDiff(t *testing.T) {
	files, err := ParseDiff(sampleDiff)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "server.go", files[0].Path)
	assert.Equal(t, "util.go", files[1].Path)
	require.Len(t, files[0].Hunks, 1)

	h := files[0].Hunks[0]
	assert.Equal(t, 10, h.OldStart)
	assert.Equal(t, 6, h.OldLines)
	assert.Equal(t, 10, h.NewStart)
	assert.Equal(t, 8, h.NewLines)
	assert.Contains(t, h.Header, "func handler")
}

func TestAddedLinesNumbering(t *testing.T) {
	files, err := ParseDiff(sampleDiff)
	require.NoError(t, err)

	added := files[0].AddedLines()
	require.Len(t, added, 3)

	// Hunk starts at new line 10: context(10), removed, then three adds
	// occupy new lines 11, 12, 13.
	assert.Equal(t, 11, added[0].NewNumber)
	assert.Equal(t, 13, added[2].NewNumber)
	assert.Contains(t, added[0].Content, "exec.Command")

	util := files[1].AddedLines()
	require.Len(t, util, 1)
	assert.Equal(t, 2, util[0].NewNumber)
}

func TestParseDiffMalformedHunk(t *testing.T) {
	_, err := ParseDiff("diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ broken @@\n+line\n")
	require.Error(t, err)
}

func TestParseDiffEmpty(t *testing.T) {
	files, err := ParseDiff("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParsePRURL(t *testing.T) {
	owner, repo, num, err := ParsePRURL("https://github.com/krhitesh7/nullkrypt3rs/pull/42")
	require.NoError(t, err)
	assert.Equal(t, "krhitesh7", owner)
	assert.Equal(t, "nullkrypt3rs", repo)
	assert.Equal(t, 42, num)

	_, _, _, err = ParsePRURL("https://github.com/krhitesh7/nullkrypt3rs/issues/42")
	require.Error(t, err)

	_, _, _, err = ParsePRURL("not a url at all")
	require.Error(t, err)
}
