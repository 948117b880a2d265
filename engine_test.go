package compost

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_Examples exercises every example program under examples/ against
// spec §8's exact expected-output table.
func TestRun_Examples(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"automatic_definitions.cps", "BottomRight of A: 30, 15. Width and Height of B: 5, 10"},
		{"class_inheritance.cps", "100"},
		{"classes.cps", "There is no way to output this point"},
		{"functions_and_constants.cps", "52"},
		{"traits_and_definitions.cps", "-1, -2"},
		{"types.cps", "Hello, Bob. Hello, Fifi. Bob (20). Fifi (3)"},
		{"linked_list.cps", "1, 2, 3, 4 (total: 10). Reversed: 4, 3, 2, 1 (total: 10). Together: 1, 2, 3, 4, 4, 3, 2, 1 (total: 20)"},
		{"multiple_inheritance.cps", "Child of Perry (species: Platypus)"},
		{"if.cps", "Yes"},
		{"binary_tree.cps", "3 -1 2"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.file, func(t *testing.T) {
			src, err := os.ReadFile("examples/" + c.file)
			require.NoError(t, err)

			eng, err := New(string(src))
			require.NoError(t, err)

			out, err := eng.Run()
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestNew_ReportsParseErrorsFromUserSource(t *testing.T) {
	_, err := New("mod A\n    class\n        x Int\n    class\n        y Int\n")
	assert.Error(t, err)
}

func TestNew_EmptySourceStillLoadsPrelude(t *testing.T) {
	_, err := New("")
	assert.NoError(t, err)
}
