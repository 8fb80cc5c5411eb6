package sqlast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindSelect: "SELECT",
		KindUpdate: "UPDATE",
		KindDelete: "DELETE",
		KindInsert: "INSERT",
		KindOther:  "OTHER",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestBaseVisitorDefaultsAreNoOps(t *testing.T) {
	var v BaseVisitor
	assert.NoError(t, v.VisitSelect(&SelectStatement{}))
	assert.NoError(t, v.VisitUpdate(&UpdateStatement{}))
	assert.NoError(t, v.VisitDelete(&DeleteStatement{}))
	assert.NoError(t, v.VisitInsert(&InsertStatement{}))
	assert.NoError(t, v.VisitRawSQL(&OtherStatement{}))
}

type recordingVisitor struct {
	BaseVisitor
	visited Kind
}

func (r *recordingVisitor) VisitDelete(s *DeleteStatement) error {
	r.visited = s.Kind()
	return nil
}

func TestStatementAcceptDispatchesToMatchingArm(t *testing.T) {
	stmt := &DeleteStatement{RawText: "DELETE FROM t"}
	v := &recordingVisitor{}
	require := assert.New(t)
	require.NoError(stmt.Accept(v))
	require.Equal(KindDelete, v.visited)
	require.Equal("DELETE FROM t", stmt.Raw())
}
