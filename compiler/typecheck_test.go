package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeCheck_Expressions(t *testing.T) {
	testDatas := []struct {
		name string
		data string
		ok   bool
	}{
		{
			name: "numeric promotion",
			data: `
			public class A {
				public A() {}
				public int m(byte b, char c, short s) { return b + c * s; }
			}
			`,
			ok: true,
		},
		{
			name: "widening assignment",
			data: `
			public class A {
				public A() {}
				public int m(byte b) { int x = b; short s = b; return x + s; }
			}
			`,
			ok: true,
		},
		{
			name: "no char to short",
			data: `
			public class A {
				public A() {}
				public short m(char c) { short s = c; return s; }
			}
			`,
			ok: false,
		},
		{
			name: "boolean arithmetic rejected",
			data: `
			public class A {
				public A() {}
				public int m(boolean b) { return b + 1; }
			}
			`,
			ok: false,
		},
		{
			name: "condition must be boolean",
			data: `
			public class A {
				public A() {}
				public int m(int x) { if (x) { return 1; } return 0; }
			}
			`,
			ok: false,
		},
		{
			name: "string concatenation",
			data: `
			public class A {
				public A() {}
				public String m(int x) { return "x=" + x; }
			}
			`,
			ok: true,
		},
		{
			name: "reference equality needs relation",
			data: `
			public class A {
				public A() {}
				public boolean m(String s) { return s == this; }
			}
			`,
			ok: false,
		},
		{
			name: "null comparison",
			data: `
			public class A {
				public A() {}
				public boolean m(String s) { return s == null; }
			}
			`,
			ok: true,
		},
		{
			name: "instanceof on reference",
			data: `
			public class A {
				public A() {}
				public boolean m(Object o) { return o instanceof A; }
			}
			`,
			ok: true,
		},
		{
			name: "null instanceof",
			data: `
			public class A {
				public A() {}
				public boolean m() { return null instanceof A; }
			}
			`,
			ok: true,
		},
		{
			name: "instanceof on int",
			data: `
			public class A {
				public A() {}
				public boolean m(int x) { return x instanceof A; }
			}
			`,
			ok: false,
		},
		{
			name: "cast primitives both ways",
			data: `
			public class A {
				public A() {}
				public byte m(int x) { return (byte) x; }
			}
			`,
			ok: true,
		},
		{
			name: "cast int to reference",
			data: `
			public class A {
				public A() {}
				public A m(int x) { return (A) x; }
			}
			`,
			ok: false,
		},
		{
			name: "array covariance for references",
			data: `
			public class A {
				public A() {}
				public Object[] m(String[] ss) { Object[] os = ss; return os; }
			}
			`,
			ok: true,
		},
		{
			name: "primitive arrays invariant",
			data: `
			public class A {
				public A() {}
				public int[] m(byte[] bs) { int[] is = bs; return is; }
			}
			`,
			ok: false,
		},
		{
			name: "array to object",
			data: `
			public class A {
				public A() {}
				public Object m(int[] is) { return is; }
			}
			`,
			ok: true,
		},
		{
			name: "array index type",
			data: `
			public class A {
				public A() {}
				public int m(int[] is, boolean b) { return is[b]; }
			}
			`,
			ok: false,
		},
		{
			name: "array length reads",
			data: `
			public class A {
				public A() {}
				public int m(int[] is) { return is.length; }
			}
			`,
			ok: true,
		},
		{
			name: "array length is final",
			data: `
			public class A {
				public A() {}
				public void m(int[] is) { is.length = 3; }
			}
			`,
			ok: false,
		},
		{
			name: "final field assignment",
			data: `
			public class A {
				public final int x = 1;
				public A() {}
				public void m() { x = 2; }
			}
			`,
			ok: false,
		},
		{
			name: "new of abstract class",
			data: `
			public class A {
				public A() {}
				public Object m() { return new B(); }
			}
			public class ignored {}
			`,
			ok: false,
		},
	}
	for _, testData := range testDatas {
		if testData.name == "new of abstract class" {
			_, diags := compileSources(
				Source{"B.java", "public abstract class B { public B() {} }"},
				Source{"A.java", `
				public class A {
					public A() {}
					public Object m() { return new B(); }
				}
				`},
			)
			assert.True(t, diags.HasErrors(), testData.name)
			continue
		}
		_, diags := compileSources(Source{"A.java", testData.data})
		assert.Equal(t, !testData.ok, diags.HasErrors(), testData.name)
	}
}

func TestTypeCheck_OverloadResolution(t *testing.T) {
	// f(int) and f(short) called with an int argument: only f(int) is
	// applicable, and it must be the one resolved.
	program, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public int f(int x) { return 1; }
		public int f(short x) { return 2; }
		public int g() { return this.f(3); }
	}
	`})
	assert.False(t, diags.HasErrors())

	decl := program.UserUnits[0].Type
	var g *MethodAst
	for _, m := range decl.Methods {
		if m.Name == "g" {
			g = m
		}
	}
	assert.NotNil(t, g)
	ret := g.Body[0].Statement.(*ReturnStatementAst)
	call := ret.Value.Value.(*CallExprAst)
	assert.NotNil(t, call.Method)
	assert.Equal(t, IntType, call.Method.Params[0].TP.TP)

	// Resolution is deterministic: compiling again picks the same method.
	program2, diags2 := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public int f(int x) { return 1; }
		public int f(short x) { return 2; }
		public int g() { return this.f(3); }
	}
	`})
	assert.False(t, diags2.HasErrors())
	decl2 := program2.UserUnits[0].Type
	for _, m := range decl2.Methods {
		if m.Name == "g" {
			call2 := m.Body[0].Statement.(*ReturnStatementAst).Value.Value.(*CallExprAst)
			assert.Equal(t, call.Method.Signature(), call2.Method.Signature())
		}
	}
}

func TestTypeCheck_OverloadAmbiguity(t *testing.T) {
	_, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public int f(int x, short y) { return 1; }
		public int f(short x, int y) { return 2; }
		public int g(byte b) { return this.f(b, b); }
	}
	`})
	assert.True(t, diags.HasErrors())
	assert.Equal(t, TypeErrorKind, firstErrorKind(diags))
}

func TestTypeCheck_NoApplicableMethod(t *testing.T) {
	_, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public int f(short x) { return 1; }
		public int g() { return this.f(100000); }
	}
	`})
	assert.True(t, diags.HasErrors())
	assert.Equal(t, TypeErrorKind, firstErrorKind(diags))
}

func TestTypeCheck_ProtectedAccess(t *testing.T) {
	// Accessing a protected member of an unrelated subclass through a
	// supertype receiver is a type error; through a receiver of the
	// accessor's own type it is fine.
	a := Source{"A.java", `
	package p1;
	public class A {
		public A() {}
		protected int x;
	}
	`}
	_, diags := compileSources(a, Source{"B.java", `
	package p2;
	import p1.A;
	public class B extends A {
		public B() {}
		public int bad(A a) { return a.x; }
	}
	`})
	assert.True(t, diags.HasErrors())
	assert.Equal(t, TypeErrorKind, firstErrorKind(diags))

	_, diags = compileSources(a, Source{"B.java", `
	package p2;
	import p1.A;
	public class B extends A {
		public B() {}
		public int good(B b) { return b.x + this.x; }
	}
	`})
	assert.False(t, diags.HasErrors())

	// Same package needs no subclass relation at all.
	_, diags = compileSources(a, Source{"C.java", `
	package p1;
	public class C {
		public C() {}
		public int fine(A a) { return a.x; }
	}
	`})
	assert.False(t, diags.HasErrors())
}

func TestTypeCheck_StaticDispatchContext(t *testing.T) {
	testDatas := []struct {
		name string
		data string
		ok   bool
	}{
		{
			name: "static call through type name",
			data: `
			public class A {
				public A() {}
				public static int f() { return 1; }
				public static int test() { return A.f(); }
			}
			`,
			ok: true,
		},
		{
			name: "instance method through type name",
			data: `
			public class A {
				public A() {}
				public int f() { return 1; }
				public static int test() { return A.f(); }
			}
			`,
			ok: false,
		},
		{
			name: "unqualified instance call in static context",
			data: `
			public class A {
				public A() {}
				public int f() { return 1; }
				public static int test() { return f(); }
			}
			`,
			ok: false,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(Source{"A.java", testData.data})
		assert.Equal(t, !testData.ok, diags.HasErrors(), testData.name)
	}
}
