package scopeshare_test

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Blockcast/scopeshare"
)

func TestCellReadBack(t *testing.T) {
	for _, v := range []string{"", "a", "hello world"} {
		c := scopeshare.New(v)
		assert.Equal(t, v, scopeshare.View(c, identity[string]))
	}
}

func TestCellModifyAppliesOnce(t *testing.T) {
	c := scopeshare.New([]int{1})
	n := scopeshare.Modify(c, func(p *[]int) int {
		*p = append(*p, 2)
		return len(*p)
	})
	assert.Equal(t, 2, n)

	var got []int
	c.With(func(v []int) { got = v })
	assert.Equal(t, []int{1, 2}, got)

	c.WithMut(func(p *[]int) { (*p)[0] = 7 })
	c.With(func(v []int) { got = v })
	assert.Equal(t, []int{7, 2}, got)
}

func TestCellBorrowMutWhileBorrowed(t *testing.T) {
	c := scopeshare.New(1)
	g := c.Borrow()

	err := recoverErr(func() { c.WithMut(func(*int) {}) })
	require.ErrorIs(t, err, scopeshare.ErrAlreadyBorrowed)
	var be *scopeshare.BorrowError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "borrow mut", be.Op)

	_, err = c.TryBorrowMut()
	require.ErrorIs(t, err, scopeshare.ErrAlreadyBorrowed)

	g.Release()
	c.WithMut(func(p *int) { *p = 2 })
	assert.Equal(t, 2, scopeshare.View(c, identity[int]))
}

func TestCellBorrowWhileMutablyBorrowed(t *testing.T) {
	c := scopeshare.New(1)
	c.WithMut(func(p *int) {
		err := recoverErr(func() { c.With(func(int) {}) })
		require.ErrorIs(t, err, scopeshare.ErrAlreadyMutablyBorrowed)

		err = recoverErr(func() { c.BorrowMut() })
		require.ErrorIs(t, err, scopeshare.ErrAlreadyBorrowed)

		*p = 5
	})

	g, err := c.TryBorrow()
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, 5, g.Get())
}

func TestCellSharedBorrowsNest(t *testing.T) {
	c := scopeshare.New("x")
	g1 := c.Borrow()
	g2 := c.Borrow()
	c.With(func(v string) { assert.Equal(t, "x", v) })
	assert.Equal(t, g1.Get(), g2.Get())
	g1.Release()

	_, err := c.TryBorrowMut()
	require.Error(t, err)

	g2.Release()
	w, err := c.TryBorrowMut()
	require.NoError(t, err)
	w.Set("y")
	w.Release()
	assert.Equal(t, "y", scopeshare.View(c, identity[string]))
}

func TestCellGuardRelease(t *testing.T) {
	c := scopeshare.New(3)

	g := c.BorrowMut()
	*g.Ptr() += 1
	g.Release()
	g.Release()
	assert.ErrorIs(t, recoverErr(func() { g.Get() }), scopeshare.ErrReleasedGuard)

	r := c.Borrow()
	assert.Equal(t, 4, *r.Ptr())
	assert.Equal(t, "4", r.String())
	r.Release()
	r.Release()
	assert.ErrorIs(t, recoverErr(func() { r.Get() }), scopeshare.ErrReleasedGuard)

	c.BorrowMut().Release()
}

func TestCellPanicReleasesBorrow(t *testing.T) {
	c := scopeshare.New(0)
	assert.PanicsWithValue(t, "boom", func() {
		c.WithMut(func(p *int) {
			*p = 1
			panic("boom")
		})
	})
	assert.PanicsWithValue(t, "boom", func() {
		c.With(func(int) { panic("boom") })
	})
	assert.PanicsWithValue(t, "boom", func() {
		g := c.BorrowMut()
		defer g.Release()
		panic("boom")
	})

	c.WithMut(func(p *int) { *p++ })
	assert.Equal(t, 2, scopeshare.View(c, identity[int]))
}

func TestCellGuardPanicUnwindsUntouched(t *testing.T) {
	c := scopeshare.New(0)
	var stack string
	func() {
		defer func() {
			if recover() != nil {
				stack = string(debug.Stack())
			}
		}()
		g := c.BorrowMut()
		defer g.Release()
		panic("boom")
	}()

	require.NotEmpty(t, stack)
	assert.NotContains(t, stack, "WriteGuard")
	c.BorrowMut().Release()
}

func TestCellReplace(t *testing.T) {
	c := scopeshare.New("old")
	assert.Equal(t, "old", c.Replace("new"))
	assert.Equal(t, "new", scopeshare.View(c, identity[string]))
}

func TestCellClone(t *testing.T) {
	c := scopeshare.New(list{1, 2})
	d := c.Clone()
	c.WithMut(func(p *list) { (*p)[0] = 9 })

	assert.Equal(t, list{9, 2}, scopeshare.View(c, identity[list]))
	assert.Equal(t, list{1, 2}, scopeshare.View(d, identity[list]))

	g := c.BorrowMut()
	err := recoverErr(func() { c.Clone() })
	g.Release()
	require.ErrorIs(t, err, scopeshare.ErrAlreadyMutablyBorrowed)
}

func TestCellString(t *testing.T) {
	c := scopeshare.New(42)
	assert.Equal(t, "Cell{value: 42}", c.String())
	assert.Equal(t, "scopeshare.Cell[int]{value: 42}", c.GoString())

	g := c.BorrowMut()
	defer g.Release()
	err := recoverErr(func() { _ = c.String() })
	require.ErrorIs(t, err, scopeshare.ErrAlreadyMutablyBorrowed)
}

func TestCellZeroValue(t *testing.T) {
	var c scopeshare.Cell[string]
	assert.Equal(t, "", scopeshare.View(&c, identity[string]))
	c.WithMut(func(p *string) { *p = "set" })
	assert.Equal(t, "set", scopeshare.View(&c, identity[string]))
}

func TestCellCrossGoroutine(t *testing.T) {
	c := scopeshare.New(1)

	for _, hold := range []func() func(){
		func() func() { return c.Borrow().Release },
		func() func() { return c.BorrowMut().Release },
	} {
		release := hold()
		done := make(chan error)
		go func() {
			done <- recoverErr(func() { c.Borrow() })
		}()
		err := <-done
		release()
		require.ErrorIs(t, err, scopeshare.ErrCrossGoroutine)
	}

	done := make(chan int)
	go func() {
		done <- scopeshare.View(c, func(v int) int { return v })
	}()
	assert.Equal(t, 1, <-done)
}

func TestCellLogsRejectedBorrows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := scopeshare.New(1, scopeshare.WithLogger(zap.New(core)))

	g := c.Borrow()
	_, err := c.TryBorrowMut()
	g.Release()
	require.Error(t, err)

	entries := logs.FilterMessage("mutable borrow rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}
