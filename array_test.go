package tracerx_test

import (
	"testing"

	"github.com/ninesd/tracerx"
	"github.com/google/go-cmp/cmp"
)

func TestArray(t *testing.T) {
	t.Run("Concrete", func(t *testing.T) {
		t.Run("Bool", func(t *testing.T) {
			a := tracerx.NewArray(0, 4)
			a = a.Store(tracerx.NewConstantExpr(3, 32), tracerx.NewConstantExpr(1, 1), false)
			if expr, ok := a.Select(tracerx.NewConstantExpr(3, 32), 1, false).(*tracerx.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 1 {
				t.Fatal("unexpected value")
			} else if expr.Width != 1 {
				t.Fatal("unexpected width")
			}
		})

		t.Run("BigEndian", func(t *testing.T) {
			a := tracerx.NewArray(0, 4)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0xAABBCCDD, 32), false)
			if expr, ok := a.Select(tracerx.NewConstantExpr(0, 32), 32, false).(*tracerx.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0xAABBCCDD {
				t.Fatal("unexpected value")
			}
		})

		t.Run("LittleEndian", func(t *testing.T) {
			a := tracerx.NewArray(0, 4)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0xAABBCCDD, 32), true)
			if expr, ok := a.Select(tracerx.NewConstantExpr(0, 32), 32, true).(*tracerx.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0xAABBCCDD {
				t.Fatal("unexpected value")
			}
		})
	})

	t.Run("Symbolic", func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			t.Run("SingleByte", func(t *testing.T) {
				a := tracerx.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(tracerx.NewConstantExpr64(0), 8, false),
					&tracerx.SelectExpr{
						Array: a,
						Index: tracerx.NewConstantExpr64(0),
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("BigEndian", func(t *testing.T) {
				a := tracerx.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(tracerx.NewConstantExpr64(2), 16, false),
					&tracerx.ConcatExpr{
						MSB: &tracerx.SelectExpr{
							Array: a,
							Index: tracerx.NewConstantExpr64(2),
						},
						LSB: &tracerx.SelectExpr{
							Array: a,
							Index: tracerx.NewConstantExpr64(3),
						},
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			t.Run("LittleEndian", func(t *testing.T) {
				a := tracerx.NewArray(0, 4)
				if diff := cmp.Diff(
					a.Select(tracerx.NewConstantExpr64(2), 16, true),
					&tracerx.ConcatExpr{
						MSB: &tracerx.SelectExpr{
							Array: a,
							Index: tracerx.NewConstantExpr64(3),
						},
						LSB: &tracerx.SelectExpr{
							Array: a,
							Index: tracerx.NewConstantExpr64(2),
						},
					},
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure stores using selects from other arrays return references
			// to that original array's expressions.
			t.Run("MultiArray", func(t *testing.T) {
				a, b := tracerx.NewArray(0, 4), tracerx.NewArray(0, 8)
				b = b.Store(
					tracerx.NewConstantExpr64(6),
					a.Select(tracerx.NewConstantExpr64(2), 16, false),
					false,
				)

				if diff := cmp.Diff(
					&tracerx.ConcatExpr{
						MSB: &tracerx.SelectExpr{
							Array: b,
							Index: tracerx.NewConstantExpr64(4),
						},
						LSB: &tracerx.ConcatExpr{
							MSB: &tracerx.SelectExpr{
								Array: b,
								Index: tracerx.NewConstantExpr64(5),
							},
							LSB: &tracerx.ConcatExpr{
								MSB: &tracerx.SelectExpr{
									Array: a,
									Index: tracerx.NewConstantExpr64(2),
								},
								LSB: &tracerx.SelectExpr{
									Array: a,
									Index: tracerx.NewConstantExpr64(3),
								},
							},
						},
					},
					b.Select(tracerx.NewConstantExpr64(4), 32, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure selection of an array that contains a store with a
			// symbolic index will simply a read from the array.
			t.Run("SymbolicIndex", func(t *testing.T) {
				a, b, c := tracerx.NewArray(0, 8), tracerx.NewArray(0, 8), tracerx.NewArray(0, 8)

				// Write concrete zeros.
				c = c.Store(
					tracerx.NewConstantExpr64(0),
					tracerx.NewConstantExpr64(0),
					false,
				)

				// Overwrite with store using symbolic index.
				c = c.Store(
					b.Select(tracerx.NewConstantExpr64(0), 32, false),
					a.Select(tracerx.NewConstantExpr64(0), 8, false),
					false,
				)

				if diff := cmp.Diff(
					&tracerx.ConcatExpr{
						MSB: &tracerx.SelectExpr{
							Array: c,
							Index: tracerx.NewConstantExpr64(0),
						},
						LSB: &tracerx.SelectExpr{
							Array: c,
							Index: tracerx.NewConstantExpr64(1),
						},
					},
					c.Select(tracerx.NewConstantExpr64(0), 16, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})

			// Ensure that selection from an array with a symbolic store index
			// and then concrete store index will return the concrete store.
			t.Run("SymbolicIndexOverwritten", func(t *testing.T) {
				a, b, c := tracerx.NewArray(0, 4), tracerx.NewArray(0, 4), tracerx.NewArray(0, 4)
				c = c.Store(
					b.Select(tracerx.NewConstantExpr64(0), 32, false),
					a.Select(tracerx.NewConstantExpr64(0), 32, false),
					false,
				)

				c = c.Store(
					tracerx.NewConstantExpr64(1),
					a.Select(tracerx.NewConstantExpr64(0), 8, false),
					false,
				)

				if diff := cmp.Diff(
					&tracerx.ConcatExpr{
						MSB: &tracerx.SelectExpr{
							Array: c,
							Index: tracerx.NewConstantExpr64(0),
						},
						LSB: &tracerx.SelectExpr{
							Array: a,
							Index: tracerx.NewConstantExpr64(0),
						},
					},
					c.Select(tracerx.NewConstantExpr64(0), 16, false),
				); diff != "" {
					t.Fatal(diff)
				}
			})
		})
	})

	t.Run("GC", func(t *testing.T) {
		t.Run("ConcreteIndex", func(t *testing.T) {
			a := tracerx.NewArray(0, 2)
			a = a.Store(tracerx.NewConstantExpr64(0), tracerx.NewConstantExpr8(0), false)
			a = a.Store(tracerx.NewConstantExpr64(1), tracerx.NewConstantExpr8(1), false)
			a = a.Store(tracerx.NewConstantExpr64(0), tracerx.NewConstantExpr8(2), false)
			if expr, ok := a.Select(tracerx.NewConstantExpr64(0), 16, false).(*tracerx.ConstantExpr); !ok {
				t.Fatal("expected constant expr")
			} else if expr.Value != 0x0201 {
				t.Fatalf("unexpected value: 0x%04x", expr.Value)
			}

			if diff := cmp.Diff(
				&tracerx.Array{
					Size: 2,
					Updates: &tracerx.ArrayUpdate{
						Index: tracerx.NewConstantExpr64(0),
						Value: tracerx.NewConstantExpr8(2),
						Next: &tracerx.ArrayUpdate{
							Index: tracerx.NewConstantExpr64(1),
							Value: tracerx.NewConstantExpr8(1),
						},
					},
				},
				a,
			); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("SymbolicIndex", func(t *testing.T) {
			a, b := tracerx.NewArray(0, 2), tracerx.NewArray(0, 1)
			a = a.Store(tracerx.NewConstantExpr64(0), tracerx.NewConstantExpr8(0), false)
			a = a.Store(b.Select(tracerx.NewConstantExpr64(0), 8, false), tracerx.NewConstantExpr8(1), false) // symbolic index
			a = a.Store(tracerx.NewConstantExpr64(0), tracerx.NewConstantExpr8(2), false)

			if diff := cmp.Diff(
				&tracerx.Array{
					Size: 2,
					Updates: &tracerx.ArrayUpdate{
						Index: tracerx.NewConstantExpr64(0),
						Value: tracerx.NewConstantExpr8(2),
						Next: &tracerx.ArrayUpdate{
							Index: &tracerx.CastExpr{
								Src: &tracerx.SelectExpr{
									Array: b,
									Index: tracerx.NewConstantExpr64(0),
								},
								Width: 64,
							},
							Value: tracerx.NewConstantExpr8(1),
							Next: &tracerx.ArrayUpdate{
								Index: tracerx.NewConstantExpr64(0),
								Value: tracerx.NewConstantExpr8(0),
							},
						},
					},
				},
				a,
			); diff != "" {
				t.Fatal(diff)
			}
		})
	})

	t.Run("IsSymbolic", func(t *testing.T) {
		t.Run("AllConcrete", func(t *testing.T) {
			a := tracerx.NewArray(0, 2)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), false)
			a = a.Store(tracerx.NewConstantExpr(1, 32), tracerx.NewConstantExpr(0, 8), false)
			if a.IsSymbolic() {
				t.Fatal("expected concrete")
			}
		})

		t.Run("UnsetByte", func(t *testing.T) {
			a := tracerx.NewArray(0, 2)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})

		t.Run("ContainsSelectValue", func(t *testing.T) {
			a, b := tracerx.NewArray(0, 2), tracerx.NewArray(0, 2)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), false)
			a = a.Store(tracerx.NewConstantExpr(1, 32), b.Select(tracerx.NewConstantExpr(0, 32), 8, false), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})

		t.Run("ContainsSelectIndex", func(t *testing.T) {
			a, b := tracerx.NewArray(0, 2), tracerx.NewArray(0, 2)
			a = a.Store(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), false)
			a = a.Store(b.Select(tracerx.NewConstantExpr(0, 32), 8, false), tracerx.NewConstantExpr(0, 32), false)
			if !a.IsSymbolic() {
				t.Fatal("expected symbolic")
			}
		})
	})
}

func TestCompareArray(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if cmp := tracerx.CompareArray(nil, nil); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArray(nil, tracerx.NewArray(0, 2)); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArray(tracerx.NewArray(0, 2), nil); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Size", func(t *testing.T) {
		if cmp := tracerx.CompareArray(tracerx.NewArray(0, 2), tracerx.NewArray(0, 2)); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArray(tracerx.NewArray(0, 1), tracerx.NewArray(0, 2)); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArray(tracerx.NewArray(0, 2), tracerx.NewArray(0, 1)); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})
}

func TestCompareArrayUpdate(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		upd := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), nil)
		if cmp := tracerx.CompareArrayUpdate(nil, nil); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(nil, upd); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(upd, nil); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Index", func(t *testing.T) {
		a := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), nil)
		b := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(1, 32), tracerx.NewConstantExpr(0, 8), nil)
		if cmp := tracerx.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Value", func(t *testing.T) {
		a := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), nil)
		b := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(1, 8), nil)
		if cmp := tracerx.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})

	t.Run("Next", func(t *testing.T) {
		a := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), nil)
		b := tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), tracerx.NewArrayUpdate(tracerx.NewConstantExpr(0, 32), tracerx.NewConstantExpr(0, 8), nil))
		if cmp := tracerx.CompareArrayUpdate(a, a); cmp != 0 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(a, b); cmp != -1 {
			t.Fatalf("unexpected compare: %d", cmp)
		} else if cmp := tracerx.CompareArrayUpdate(b, a); cmp != 1 {
			t.Fatalf("unexpected compare: %d", cmp)
		}
	})
}
