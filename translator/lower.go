package translator

import (
	"fmt"
	"strings"

	"github.com/csa-toolchain/csam/ast"
	"github.com/csa-toolchain/csam/isa"
)

// translateRootNode dispatches one top-level (or branch/loop-body)
// statement to its lowering routine, mirroring
// Translator._translate_root_ast_node's isinstance dispatch table.
func (t *Translator) translateRootNode(stmt ast.Statement) ([]*lazyInstruction, error) {
	switch n := stmt.(type) {
	case *ast.ExprStatement:
		if _, ok := n.Expr.(*ast.FunctionCall); ok {
			return nil, &TranslateError{Msg: "functions are not supported in this language version"}
		}
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected statement expression %v", n.Expr)}
	case *ast.FunctionDefinition:
		return t.translateFunctionDefinition(n)
	case *ast.VariableAssignment:
		return t.translateVariableAssignment(n)
	case *ast.VariableDefinition:
		return t.translateVariableDefinition(n)
	case *ast.Branch:
		return t.translateBranch(n)
	case *ast.For:
		return t.translateFor(n)
	case *ast.Print:
		return t.translatePrint(n)
	case *ast.Continue:
		return t.translateContinue(n)
	case *ast.Break:
		return t.translateBreak(n)
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", stmt)}
	}
}

// functions are parsed but never lowered — kept as an explicit reject
// rather than silently dropped, per spec.md §9.
func (t *Translator) translateFunctionDefinition(node *ast.FunctionDefinition) ([]*lazyInstruction, error) {
	return nil, &TranslateError{Msg: "functions are not supported in this language version"}
}

func (t *Translator) translateFunctionCall(node *ast.FunctionCall, instrs *[]*lazyInstruction) (any, error) {
	return nil, &TranslateError{Msg: "functions are not supported in this language version"}
}

func (t *Translator) translateVariableAssignment(node *ast.VariableAssignment) ([]*lazyInstruction, error) {
	name := t.getIdentName(node.Name)
	loc, err := t.getVariableLocationByName(name)
	if err != nil {
		return nil, err
	}

	var instructions []*lazyInstruction
	value, err := t.translateVariableValue(node.Value, &instructions)
	if err != nil {
		return nil, err
	}

	switch l := loc.(type) {
	case isa.Register:
		switch v := value.(type) {
		case isa.Register:
			if l != v {
				instructions = append(instructions, &lazyInstruction{kind: kindMV, args: []arg{regArg{l}, regArg{v}}})
				t.regs.freeTemp(v)
			}
		case *Variable:
			instructions = append(instructions, &lazyInstruction{kind: kindLW, args: []arg{regArg{l}, varRefArg{Var: v}}})
		default:
			return nil, &TranslateError{Msg: fmt.Sprintf("unexpected assignment value %v", value)}
		}
	case *Variable:
		switch v := value.(type) {
		case isa.Register:
			instructions = append(instructions, &lazyInstruction{kind: kindSW, args: []arg{regArg{v}, varRefArg{Var: l}}})
			t.regs.freeTemp(v)
		case *Variable:
			instructions = append(instructions,
				&lazyInstruction{kind: kindLW, args: []arg{regArg{isa.FirstLoadTemp}, varRefArg{Var: v}}},
				&lazyInstruction{kind: kindSW, args: []arg{regArg{isa.FirstLoadTemp}, varRefArg{Var: l}}},
			)
		default:
			return nil, &TranslateError{Msg: fmt.Sprintf("unexpected assignment value %v", value)}
		}
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected assignment target %v", loc)}
	}

	return instructions, nil
}

// translateVariableDefinition preserves the original's quirk of copying a
// compile-time initializer's value onto the new variable rather than
// re-resolving it — e.g. `b:int = a` where a is itself a spilled constant
// copies a's literal value into b, not a load/store pair. Not redesigned:
// this is observable program behavior, not a bug.
func (t *Translator) translateVariableDefinition(node *ast.VariableDefinition) ([]*lazyInstruction, error) {
	name := t.getIdentName(node.Name)
	var instructions []*lazyInstruction
	value, err := t.translateVariableValue(node.Value, &instructions)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case isa.Register:
		if reg, ok := t.regs.findFreeSaved(); ok {
			instructions = append(instructions, &lazyInstruction{kind: kindMV, args: []arg{regArg{reg}, regArg{v}}})
			if err := t.regs.take(reg, name); err != nil {
				return nil, err
			}
			t.regs.freeTemp(v)
		} else {
			variable := t.mem.createVariable(name, int64(0))
			instructions = append(instructions, &lazyInstruction{kind: kindSW, args: []arg{regArg{v}, varRefArg{Var: variable}}})
			t.regs.freeTemp(v)
		}
	case *Variable:
		// An anonymous ("literal_N") Variable reaching here is a pooled
		// location translateInput (or a bare string literal) already
		// allocated and, for the input case, already wrote the runtime
		// value into — the name must resolve to that same address rather
		// than a fresh copy of its compile-time placeholder value. A
		// user-named Variable (the right-hand side of `x = y`) gets its
		// own independent copy, matching plain value-assignment semantics.
		if strings.HasPrefix(v.Label, "literal_") {
			t.mem.aliasVariable(name, v)
		} else {
			t.mem.createVariable(name, v.Value)
		}
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected definition value %v", value)}
	}

	return instructions, nil
}

// translateBranch lowers an if/elif/.../else chain, then patches every
// "jump to end" placeholder emitted by translateBranchNode to the
// jump_own_index + offset convention. Grounded on
// Translator._translate_branch.
func (t *Translator) translateBranch(node *ast.Branch) ([]*lazyInstruction, error) {
	var instructions []*lazyInstruction
	if err := t.translateBranchNode(node, &instructions); err != nil {
		return nil, err
	}

	for i, li := range instructions {
		if calc, _ := li.getMeta("calcJumpToEnd").(bool); calc {
			li.setMeta("calcJumpToEnd", false)
			*li.offsetCell() = int32(len(instructions) - i)
		}
	}

	return instructions, nil
}

func (t *Translator) translateBranchNode(node *ast.Branch, instructions *[]*lazyInstruction) error {
	jumpToEnd := newOffsetArg(0)

	var bodyInstructions []*lazyInstruction
	for _, stmt := range node.Body {
		instrs, err := t.translateRootNode(stmt)
		if err != nil {
			return err
		}
		bodyInstructions = append(bodyInstructions, instrs...)
	}

	jumpInstr := &lazyInstruction{kind: kindJO, args: []arg{jumpToEnd}}
	jumpInstr.setMeta("calcJumpToEnd", true)
	bodyInstructions = append(bodyInstructions, jumpInstr)

	var conditionInstructions []*lazyInstruction
	if node.Condition != nil {
		offsetToEnd := newOffsetArg(int32(len(bodyInstructions)))

		loc, err := t.translateExpression(node.Condition, &conditionInstructions)
		if err != nil {
			return err
		}
		switch l := loc.(type) {
		case isa.Register:
			conditionInstructions = append(conditionInstructions, &lazyInstruction{kind: kindJZ, args: []arg{offsetToEnd}})
			t.regs.freeTemp(l)
		case *Variable:
			conditionInstructions = append(conditionInstructions,
				&lazyInstruction{kind: kindLW, args: []arg{regArg{isa.FirstLoadTemp}, varRefArg{Var: l}}},
				&lazyInstruction{kind: kindJZ, args: []arg{offsetToEnd}},
			)
		default:
			return &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", loc)}
		}
	}

	*instructions = append(*instructions, conditionInstructions...)
	*instructions = append(*instructions, bodyInstructions...)
	*jumpToEnd.Cell -= int32(len(*instructions))

	if node.NextBranch != nil {
		return t.translateBranchNode(node.NextBranch, instructions)
	}
	*instructions = (*instructions)[:len(*instructions)-1]
	return nil
}

// translateFor lowers a C-style for loop: start clause, condition-guarded
// jump past the body, body, end clause, backward jump to the condition,
// then patches continue/break placeholders via the jump_own_index + offset
// convention. Grounded on Translator._translate_for, with one deliberate
// deviation: a for-loop with no end clause no longer raises (see
// DESIGN.md) — the ported reference's `elif ast_node.start is not None`
// check fires whenever start was given and end is absent, rejecting
// perfectly valid loops like `for [i:int=0; i<10;] { ... }`.
func (t *Translator) translateFor(node *ast.For) ([]*lazyInstruction, error) {
	var instructions []*lazyInstruction

	if node.Start != nil {
		switch s := node.Start.(type) {
		case *ast.VariableAssignment:
			instrs, err := t.translateVariableAssignment(s)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, instrs...)
		case *ast.VariableDefinition:
			instrs, err := t.translateVariableDefinition(s)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, instrs...)
		default:
			return nil, &TranslateError{Msg: fmt.Sprintf("unexpected for-loop start %v", node.Start)}
		}
	}

	offsetToEnd := newOffsetArg(0)
	var bodyInstructions []*lazyInstruction

	loc, err := t.translateExpression(node.Condition, &bodyInstructions)
	if err != nil {
		return nil, err
	}
	bodyInstructions = append(bodyInstructions, &lazyInstruction{kind: kindJZ, args: []arg{offsetToEnd}})
	*offsetToEnd.Cell -= int32(len(bodyInstructions))

	if reg, ok := loc.(isa.Register); ok {
		t.regs.freeTemp(reg)
	}

	for _, stmt := range node.Body {
		instrs, err := t.translateRootNode(stmt)
		if err != nil {
			return nil, err
		}
		bodyInstructions = append(bodyInstructions, instrs...)
	}

	endInstructionsLen := 0
	if node.End != nil {
		endInstrs, err := t.translateVariableAssignment(node.End)
		if err != nil {
			return nil, err
		}
		endInstructionsLen = len(endInstrs)
		bodyInstructions = append(bodyInstructions, endInstrs...)
	}

	loopBack := newOffsetArg(-int32(len(bodyInstructions)))
	bodyInstructions = append(bodyInstructions, &lazyInstruction{kind: kindJO, args: []arg{loopBack}})

	*offsetToEnd.Cell += int32(len(bodyInstructions)) + 1

	for i, li := range bodyInstructions {
		switch li.getMeta("term").(type) {
		case *ast.Continue:
			*li.offsetCell() = int32(len(bodyInstructions) - endInstructionsLen - i - 1)
		case *ast.Break:
			*li.offsetCell() = int32(len(bodyInstructions) - i)
		}
	}

	instructions = append(instructions, bodyInstructions...)
	return instructions, nil
}

func (t *Translator) translateContinue(node *ast.Continue) ([]*lazyInstruction, error) {
	instr := &lazyInstruction{kind: kindJO, args: []arg{newOffsetArg(0)}}
	instr.setMeta("term", node)
	return []*lazyInstruction{instr}, nil
}

func (t *Translator) translateBreak(node *ast.Break) ([]*lazyInstruction, error) {
	instr := &lazyInstruction{kind: kindJO, args: []arg{newOffsetArg(0)}}
	instr.setMeta("term", node)
	return []*lazyInstruction{instr}, nil
}

// translatePrint emits, per argument: a register straight to the output
// port; an int variable loaded then stored to the port; a string variable
// streamed one character per word until a zero word (the NUL terminator)
// is hit. Grounded on Translator._translate_print.
func (t *Translator) translatePrint(node *ast.Print) ([]*lazyInstruction, error) {
	var instructions []*lazyInstruction

	for _, expr := range node.Args {
		loc, err := t.translateExpression(expr, &instructions)
		if err != nil {
			return nil, err
		}

		switch v := loc.(type) {
		case isa.Register:
			instructions = append(instructions, &lazyInstruction{kind: kindSW, args: []arg{regArg{v}, immArg{isa.OutputAddr}}})
		case *Variable:
			switch v.Value.(type) {
			case int64:
				instructions = append(instructions,
					&lazyInstruction{kind: kindLW, args: []arg{regArg{isa.FirstLoadTemp}, varRefArg{Var: v}}},
					&lazyInstruction{kind: kindSW, args: []arg{regArg{isa.FirstLoadTemp}, immArg{isa.OutputAddr}}},
				)
			case string, charBuffer:
				instructions = append(instructions, printWordLoop(v)...)
			default:
				return nil, &TranslateError{Msg: fmt.Sprintf("unexpected variable value %v", v.Value)}
			}
		default:
			return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", loc)}
		}
	}

	return instructions, nil
}

// printWordLoop streams a string or charBuffer Variable to the output port
// one character per word, starting at v's own address, until it reads an
// all-zero word. A literal string's words hold their compile-time
// characters; a charBuffer's words hold whatever translateInput wrote at
// runtime — the loop doesn't care which, since both guarantee a genuine
// trailing zero word past their last real word (see valueWords/wordCount).
func printWordLoop(v *Variable) []*lazyInstruction {
	stringAddrReg := isa.FirstLoadTemp
	charsReg := isa.SecondLoadTemp
	return []*lazyInstruction{
		{kind: kindLLI, args: []arg{regArg{stringAddrReg}, varRefArg{Var: v}}},
		{kind: kindLUI, args: []arg{regArg{stringAddrReg}, varRefArg{Var: v}}},
		{kind: kindLWR, args: []arg{regArg{charsReg}, regArg{stringAddrReg}}},
		{kind: kindADDI, args: []arg{regArg{charsReg}, immArg{0}}},
		{kind: kindJZ, args: []arg{newOffsetArg(4)}},
		{kind: kindSW, args: []arg{regArg{charsReg}, immArg{isa.OutputAddr}}},
		// +1, not +4: stringAddrReg holds a word-slot index, and LWR/SWR
		// already scale word-slot addresses to byte offsets — see
		// DESIGN.md's word-slot addressing note.
		{kind: kindADDI, args: []arg{regArg{stringAddrReg}, immArg{1}}},
		{kind: kindJO, args: []arg{newOffsetArg(-5)}},
	}
}

// translateVariableValue dispatches the right-hand side of a definition or
// assignment: either a hardware input read or a plain expression.
func (t *Translator) translateVariableValue(node ast.Term, instrs *[]*lazyInstruction) (any, error) {
	switch n := node.(type) {
	case *ast.Input:
		return t.translateInput(n, instrs)
	case ast.Expression:
		return t.translateExpression(n, instrs)
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", node)}
	}
}

// translateInput lowers `input` / `input(n)`. Both paths use read_word's
// spin loop over the I/O buffer's write/read pointer cells. This
// differs from the ported reference in three ways documented in
// DESIGN.md: (1) the single-word path's instructions are properly
// appended rather than passed as extra positional arguments to
// list.append (a call that would raise TypeError in real Python); (2) the
// write/read pointer cells are loaded with LW (their stored value) rather
// than LLI/LUI (the cell's own address) twice over — genuine pointer
// indirection instead of a meaningless self-comparison; (3) the
// multi-word path returns the pooled string constant so callers can
// actually bind the read data to a variable.
func (t *Translator) translateInput(node *ast.Input, instrs *[]*lazyInstruction) (any, error) {
	readWord := func(out *[]*lazyInstruction) isa.Register {
		enabledWordsReg := isa.FirstLoadTemp
		alreadyReadWordsReg := isa.SecondLoadTemp

		var group []*lazyInstruction
		group = append(group,
			&lazyInstruction{kind: kindLW, args: []arg{regArg{enabledWordsReg}, addrCellArg{t.mem.ioWriteAddr}}},
			&lazyInstruction{kind: kindLW, args: []arg{regArg{alreadyReadWordsReg}, addrCellArg{t.mem.ioReadAddr}}},
			&lazyInstruction{kind: kindCMP, args: []arg{regArg{enabledWordsReg}, regArg{alreadyReadWordsReg}}},
		)
		jzIdx := len(group)
		group = append(group, &lazyInstruction{kind: kindJZ, args: []arg{newOffsetArg(-int32(jzIdx))}})
		group = append(group,
			&lazyInstruction{kind: kindLWR, args: []arg{regArg{enabledWordsReg}, regArg{alreadyReadWordsReg}}},
			&lazyInstruction{kind: kindADDI, args: []arg{regArg{alreadyReadWordsReg}, immArg{1}}},
			&lazyInstruction{kind: kindSW, args: []arg{regArg{alreadyReadWordsReg}, addrCellArg{t.mem.ioReadAddr}}},
		)

		*out = append(*out, group...)
		return enabledWordsReg
	}

	if node.Count == nil {
		inputedWordReg := readWord(instrs)

		if reg, ok := t.regs.findFreeTemp(); ok {
			*instrs = append(*instrs, &lazyInstruction{kind: kindMV, args: []arg{regArg{reg}, regArg{inputedWordReg}}})
			if err := t.regs.take(reg, ""); err != nil {
				return nil, err
			}
			return reg, nil
		}

		variable := t.mem.createVariable("", int64(0))
		*instrs = append(*instrs, &lazyInstruction{kind: kindSW, args: []arg{regArg{inputedWordReg}, varRefArg{Var: variable}}})
		return variable, nil
	}

	count := int(*node.Count)
	stringVariable := t.mem.createConstant("", charBuffer{Count: int32(count)})
	for i := 0; i < count; i++ {
		inputedWordReg := readWord(instrs)
		*instrs = append(*instrs, &lazyInstruction{kind: kindSW, args: []arg{regArg{inputedWordReg}, varRefArg{Var: stringVariable, Offset: int32(i)}}})
	}
	return stringVariable, nil
}

func (t *Translator) translateExpression(expr ast.Expression, instrs *[]*lazyInstruction) (any, error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		return t.translateNumberLiteral(n, instrs)
	case *ast.StringLiteral:
		return t.translateStringLiteral(n), nil
	case *ast.Variable:
		return t.translateVariable(n)
	case *ast.FunctionCall:
		return t.translateFunctionCall(n, instrs)
	case *ast.BinOp:
		return t.translateBinOp(n, instrs)
	case *ast.UnaryOp:
		return t.translateUnaryOp(n, instrs)
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", expr)}
	}
}

func (t *Translator) translateNumberLiteral(node *ast.NumberLiteral, instrs *[]*lazyInstruction) (any, error) {
	if reg, ok := t.regs.findFreeTemp(); ok {
		*instrs = append(*instrs,
			&lazyInstruction{kind: kindLLI, args: []arg{regArg{reg}, immArg{node.Value}}},
			&lazyInstruction{kind: kindLUI, args: []arg{regArg{reg}, immArg{node.Value}}},
		)
		if err := t.regs.take(reg, ""); err != nil {
			return nil, err
		}
		return reg, nil
	}
	return t.mem.createConstant("", node.Value), nil
}

func (t *Translator) translateStringLiteral(node *ast.StringLiteral) any {
	return t.mem.createConstant("", node.Value)
}

func (t *Translator) translateVariable(node *ast.Variable) (any, error) {
	return t.getVariableLocationByName(t.getIdentName(node.Name))
}

// translateBinOp follows the original's register-reuse policy exactly:
// reuse the left operand's register as the result when it's already a
// scratch temp, otherwise borrow another temp (falling back to the
// reserved first-load-temp), and load the right operand into the
// reserved second-load-temp unless it's already a disposable temp.
// Grounded on Translator._translate_bin_op.
func (t *Translator) translateBinOp(node *ast.BinOp, instrs *[]*lazyInstruction) (any, error) {
	left, err := t.translateExpression(node.Left, instrs)
	if err != nil {
		return nil, err
	}
	right, err := t.translateExpression(node.Right, instrs)
	if err != nil {
		return nil, err
	}

	var leftRegister, resultRegister isa.Register
	switch l := left.(type) {
	case isa.Register:
		if t.regs.isTemp(l) {
			leftRegister = l
			resultRegister = l
		} else {
			leftRegister = l
			if reg, ok := t.regs.findFreeTemp(); ok {
				resultRegister = reg
				if err := t.regs.take(reg, ""); err != nil {
					return nil, err
				}
			} else {
				resultRegister = isa.FirstLoadTemp
			}
		}
	case *Variable:
		leftRegister = isa.FirstLoadTemp
		*instrs = append(*instrs, &lazyInstruction{kind: kindLW, args: []arg{regArg{leftRegister}, varRefArg{Var: l}}})
		resultRegister = leftRegister
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", left)}
	}

	var rightRegister isa.Register
	switch r := right.(type) {
	case isa.Register:
		if t.regs.isTemp(r) {
			t.regs.freeTemp(r)
			rightRegister = r
		} else {
			rightRegister = isa.SecondLoadTemp
			*instrs = append(*instrs, &lazyInstruction{kind: kindMV, args: []arg{regArg{rightRegister}, regArg{r}}})
		}
	case *Variable:
		rightRegister = isa.SecondLoadTemp
		*instrs = append(*instrs, &lazyInstruction{kind: kindLW, args: []arg{regArg{rightRegister}, varRefArg{Var: r}}})
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", right)}
	}

	arithAndLogical := map[any]instrKind{
		ast.OpAdd: kindADD, ast.OpSub: kindSUB, ast.OpMul: kindMUL, ast.OpDiv: kindDIV, ast.OpMod: kindREM,
		ast.OpAnd: kindAND, ast.OpOr: kindOR,
		ast.OpSHL: kindSHL, ast.OpSHR: kindSHR,
	}
	comparisons := map[any]instrKind{
		ast.OpEQ: kindSETEQ, ast.OpNEQ: kindSETNE, ast.OpGT: kindSETSG,
		ast.OpGTE: kindSETGE, ast.OpLT: kindSETSL, ast.OpLTE: kindSETLE,
	}

	if kind, ok := arithAndLogical[node.Op]; ok {
		*instrs = append(*instrs, &lazyInstruction{kind: kind, args: []arg{regArg{resultRegister}, regArg{leftRegister}, regArg{rightRegister}}})
	} else if kind, ok := comparisons[node.Op]; ok {
		*instrs = append(*instrs,
			&lazyInstruction{kind: kindCMP, args: []arg{regArg{leftRegister}, regArg{rightRegister}}},
			&lazyInstruction{kind: kind, args: []arg{regArg{resultRegister}}},
		)
	}

	if resultRegister == isa.FirstLoadTemp {
		variable := t.mem.createVariable("", int64(0))
		*instrs = append(*instrs, &lazyInstruction{kind: kindSW, args: []arg{regArg{isa.FirstLoadTemp}, varRefArg{Var: variable}}})
		return variable, nil
	}

	return resultRegister, nil
}

// translateUnaryOp fixes a reference to a non-existent
// `_translate_value_node` helper in the ported reference (an
// AttributeError at runtime — the real method is the one used everywhere
// else: _translate_expression); see DESIGN.md.
func (t *Translator) translateUnaryOp(node *ast.UnaryOp, instrs *[]*lazyInstruction) (any, error) {
	loc, err := t.translateExpression(node.Expr, instrs)
	if err != nil {
		return nil, err
	}

	var register isa.Register
	switch v := loc.(type) {
	case isa.Register:
		register = v
	case *Variable:
		register = isa.FirstLoadTemp
		*instrs = append(*instrs, &lazyInstruction{kind: kindLW, args: []arg{regArg{register}, varRefArg{Var: v}}})
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", loc)}
	}

	switch node.Op {
	case ast.OpSub:
		*instrs = append(*instrs, &lazyInstruction{kind: kindNEG, args: []arg{regArg{register}, regArg{register}}})
	case ast.OpNot:
		*instrs = append(*instrs, &lazyInstruction{kind: kindNOT, args: []arg{regArg{register}, regArg{register}}})
	default:
		return nil, &TranslateError{Msg: fmt.Sprintf("unexpected object %v, perhaps the validator have missed that check or the translator is incorrect", node.Op)}
	}

	if v, ok := loc.(*Variable); ok {
		*instrs = append(*instrs, &lazyInstruction{kind: kindSW, args: []arg{regArg{register}, varRefArg{Var: v}}})
	}

	return loc, nil
}

// getIdentName prefixes a source identifier with the enclosing section's
// name. Functions are rejected before any nested section is pushed, so in
// practice this is always the program section.
func (t *Translator) getIdentName(name string) string {
	return t.program.prefix + "_" + name
}

func (t *Translator) getVariableLocationByName(name string) (any, error) {
	if reg, ok := t.regs.registerByLabel(name); ok {
		return reg, nil
	}
	if v := t.mem.getVariable(name); v != nil {
		return v, nil
	}
	return nil, &TranslateError{Msg: fmt.Sprintf("variable %s is undefined", name)}
}
