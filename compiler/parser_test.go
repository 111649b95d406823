package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseUnit(t *testing.T, data string) *UnitAst {
	parser := &Parser{}
	unit, err := parser.Parse("A.java", strings.NewReader(data))
	assert.Nil(t, err)
	assert.NotNil(t, unit)
	return unit
}

func TestParser_CompilationUnit(t *testing.T) {
	unit := parseUnit(t, `
	package foo.bar;
	import java.util.List;
	import java.io.*;
	public class A extends B implements C, D {
		public int x;
		protected static char y = 'c';
		public A() {}
		public A(int x) {}
		public int m(int a, char[] b) throws E { return a; }
		public abstract int n();
	}
	`)
	assert.Equal(t, "foo.bar", unit.PackageName)
	assert.Equal(t, 2, len(unit.Imports))
	assert.False(t, unit.Imports[0].OnDemand)
	assert.Equal(t, "java.util.List", unit.Imports[0].Name)
	assert.True(t, unit.Imports[1].OnDemand)
	assert.Equal(t, "java.io", unit.Imports[1].Name)

	decl := unit.Type
	assert.Equal(t, ClassDeclKind, decl.Kind)
	assert.Equal(t, "A", decl.Name)
	assert.Equal(t, []string{"B"}, decl.ExtendNames)
	assert.Equal(t, []string{"C", "D"}, decl.ImplementNames)
	assert.Equal(t, 2, len(decl.Fields))
	assert.Equal(t, 2, len(decl.Constructors))
	assert.Equal(t, 2, len(decl.Methods))

	m := decl.Methods[0]
	assert.Equal(t, "m(int,char[])", m.Signature())
	assert.Equal(t, []string{"E"}, m.Throws)
	assert.True(t, m.HasBody)
	assert.False(t, decl.Methods[1].HasBody)
}

func TestParser_ExpressionPrecedence(t *testing.T) {
	unit := parseUnit(t, `
	public class A {
		public int m() {
			int x = 1 + 2 * 3;
			return x;
		}
	}
	`)
	decl := unit.Type.Methods[0].Body[0].Statement.(*VarDeclAst)
	add := decl.Init.Value.(*BinaryExprAst)
	assert.Equal(t, AddOp, add.Op)
	assert.Equal(t, IntegerLiteralTP, add.Left.TP)
	mul := add.Right.Value.(*BinaryExprAst)
	assert.Equal(t, MulOp, mul.Op)
}

func TestParser_CastVersusParen(t *testing.T) {
	unit := parseUnit(t, `
	public class A {
		public int m(int x) {
			int y = (x) + 1;
			A z = (A) null;
			byte b = (byte) x;
			return y;
		}
	}
	`)
	body := unit.Type.Methods[0].Body
	sum := body[0].Statement.(*VarDeclAst).Init
	assert.Equal(t, BinaryExprTP, sum.TP)
	cast := body[1].Statement.(*VarDeclAst).Init
	assert.Equal(t, CastExprTP, cast.TP)
	assert.Equal(t, "A", cast.Value.(*CastExprAst).TargetTP.Name)
	primCast := body[2].Statement.(*VarDeclAst).Init
	assert.Equal(t, CastExprTP, primCast.TP)
	assert.Equal(t, ByteType, primCast.Value.(*CastExprAst).TargetTP.TP)
}

func TestParser_Statements(t *testing.T) {
	unit := parseUnit(t, `
	public class A {
		public void m(boolean c) {
			if (c) { m(true); } else m(false);
			while (c) { }
			for (int i = 0; i < 10; i = i + 1) { }
			this.x = a[0];
		}
	}
	`)
	body := unit.Type.Methods[0].Body
	assert.Equal(t, IfStatementTP, body[0].StatementTP)
	assert.Equal(t, WhileStatementTP, body[1].StatementTP)
	assert.Equal(t, ForStatementTP, body[2].StatementTP)
	assert.Equal(t, ExprStatementTP, body[3].StatementTP)
	assign := body[3].Statement.(*ExpressionAst).Value.(*AssignExprAst)
	assert.Equal(t, ArrayAccessTP, assign.Rhs.TP)
}

func TestParser_CallShapes(t *testing.T) {
	unit := parseUnit(t, `
	public class A {
		public int m() {
			f();
			a.b.f(1, 2);
			this.f().g();
			return 0;
		}
	}
	`)
	body := unit.Type.Methods[0].Body
	plain := body[0].Statement.(*ExpressionAst).Value.(*CallExprAst)
	assert.Nil(t, plain.Target)
	assert.Equal(t, "f", plain.Name)

	dotted := body[1].Statement.(*ExpressionAst).Value.(*CallExprAst)
	assert.Equal(t, "f", dotted.Name)
	assert.Equal(t, 2, len(dotted.Args))
	assert.Equal(t, []string{"a", "b"}, dotted.Target.Value.(*NameExprAst).Ids)

	chained := body[2].Statement.(*ExpressionAst).Value.(*CallExprAst)
	assert.Equal(t, "g", chained.Name)
	assert.Equal(t, CallExprTP, chained.Target.TP)
}

func TestParser_Errors(t *testing.T) {
	testDatas := []string{
		"public class A { public void m() { int[][] x; } }",
		"public class A { public void m() { x = new A[1][2]; } }",
		"public class A { public void f; }",
		"public class A {",
		"public class A {} public class B {}",
	}
	for _, data := range testDatas {
		parser := &Parser{}
		_, err := parser.Parse("A.java", strings.NewReader(data))
		assert.NotNil(t, err, data)
	}
}
