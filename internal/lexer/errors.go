package lexer

import (
	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

func lexError(pos ast.Position, format string, args ...interface{}) error {
	return vlerr.At(vlerr.ParseError, pos, format, args...)
}
