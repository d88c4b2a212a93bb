package schema

import (
	"fmt"

	"github.com/aretw0/bramble/internal/compiler"
	"github.com/aretw0/bramble/pkg/model"
)

// BuildProblem compiles the document into a model problem. All failures are
// collected into one AggregateError so a bad document is reported whole.
func BuildProblem(doc *ProblemDoc) (*model.Problem, error) {
	b := &builder{doc: doc}
	p, errs := b.build()
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return p, nil
}

type builder struct {
	doc  *ProblemDoc
	p    *model.Problem
	env  *model.Environment
	errs []error
}

func (b *builder) fail(key, reason string, value any) {
	b.errs = append(b.errs, &ValidationError{Key: key, Reason: reason, Value: value})
}

func (b *builder) build() (*model.Problem, []error) {
	if b.doc.Name == "" {
		b.fail("name", "required", nil)
	}
	b.p = model.NewProblem(b.doc.Name)
	b.env = b.p.Environment()

	for _, name := range b.doc.Types {
		b.env.UserType(name)
	}
	for i, obj := range b.doc.Objects {
		t, ok := b.lookupType(obj.Type)
		if !ok {
			b.fail(fmt.Sprintf("objects[%d].type", i), "undeclared type", obj.Type)
			continue
		}
		if _, err := b.p.AddObject(obj.Name, t); err != nil {
			b.fail(fmt.Sprintf("objects[%d]", i), err.Error(), obj.Name)
		}
	}
	for i, fd := range b.doc.Fluents {
		b.addFluent(i, fd)
	}
	for i, ad := range b.doc.Actions {
		b.addAction(i, ad)
	}
	b.addInit()
	for i, g := range b.doc.Goals {
		parser := compiler.NewParser(compiler.Scope{Problem: b.p})
		n, err := parser.Parse(g)
		if err != nil {
			b.fail(fmt.Sprintf("goals[%d]", i), err.Error(), g)
			continue
		}
		if err := b.p.AddGoal(n); err != nil {
			b.fail(fmt.Sprintf("goals[%d]", i), err.Error(), g)
		}
	}
	return b.p, b.errs
}

func (b *builder) lookupType(name string) (*model.Type, bool) {
	switch name {
	case "bool":
		return b.env.BoolType(), true
	case "int":
		return b.env.IntType(), true
	case "real":
		return b.env.RealType(), true
	}
	if b.env.HasUserType(name) {
		return b.env.UserType(name), true
	}
	return nil, false
}

func (b *builder) addFluent(i int, fd FluentDoc) {
	result, ok := b.lookupType(fd.Type)
	if !ok {
		b.fail(fmt.Sprintf("fluents[%d].type", i), "undeclared type", fd.Type)
		return
	}
	params := make([]*model.Parameter, 0, len(fd.Params))
	for j, pd := range fd.Params {
		t, ok := b.lookupType(pd.Type)
		if !ok {
			b.fail(fmt.Sprintf("fluents[%d].params[%d].type", i, j), "undeclared type", pd.Type)
			return
		}
		params = append(params, model.NewParameter(pd.Name, t))
	}
	fl := model.NewFluent(b.env, fd.Name, result, params...)
	def := fd.Default
	if def == nil {
		def = zeroFor(result)
	}
	if err := b.p.AddFluent(fl, def); err != nil {
		b.fail(fmt.Sprintf("fluents[%d]", i), err.Error(), fd.Name)
	}
}

// zeroFor picks the default for fluents the document leaves unseeded.
// User-typed fluents have no natural zero; those must be covered by init.
func zeroFor(t *model.Type) any {
	switch t.Kind() {
	case model.BoolKind:
		return false
	case model.IntKind:
		return int64(0)
	case model.RealKind:
		return 0.0
	}
	return nil
}

func (b *builder) addAction(i int, ad ActionDoc) {
	key := func(sub string) string { return fmt.Sprintf("actions[%d].%s", i, sub) }

	var a *model.Action
	if ad.Duration == nil {
		a = model.NewInstantaneousAction(b.env, ad.Name)
	} else {
		a = model.NewDurativeAction(b.env, ad.Name)
	}

	scope := compiler.Scope{Problem: b.p, Params: make(map[string]*model.Parameter)}
	for j, pd := range ad.Params {
		t, ok := b.lookupType(pd.Type)
		if !ok {
			b.fail(key(fmt.Sprintf("params[%d].type", j)), "undeclared type", pd.Type)
			return
		}
		param, err := a.NewParameter(pd.Name, t)
		if err != nil {
			b.fail(key(fmt.Sprintf("params[%d]", j)), err.Error(), pd.Name)
			return
		}
		scope.Params[pd.Name] = param
	}
	parser := compiler.NewParser(scope)

	if ad.Duration == nil {
		b.buildInstantaneous(a, ad, parser, key)
	} else {
		b.buildDurative(a, ad, parser, key)
	}
	if err := b.p.AddAction(a); err != nil {
		b.fail(key("name"), err.Error(), ad.Name)
	}
}

func (b *builder) buildInstantaneous(a *model.Action, ad ActionDoc,
	parser *compiler.Parser, key func(string) string) {
	for j, pre := range ad.Preconditions {
		n, err := parser.Parse(pre)
		if err != nil {
			b.fail(key(fmt.Sprintf("preconditions[%d]", j)), err.Error(), pre)
			continue
		}
		if err := a.AddPrecondition(n); err != nil {
			b.fail(key(fmt.Sprintf("preconditions[%d]", j)), err.Error(), pre)
		}
	}
	if len(ad.Conditions) > 0 {
		b.fail(key("conditions"), "timed conditions require a duration", nil)
	}
	for j, ed := range ad.Effects {
		if ed.When != "" && ed.When != "start" {
			b.fail(key(fmt.Sprintf("effects[%d].when", j)), "timed effects require a duration", ed.When)
			continue
		}
		target, value, cond, ok := b.compileEffect(ed, parser, key(fmt.Sprintf("effects[%d]", j)))
		if !ok {
			continue
		}
		var err error
		switch ed.Kind {
		case "", "assign":
			if cond != nil {
				err = a.AddConditionalEffect(cond, target, value)
			} else {
				err = a.AddEffect(target, value)
			}
		case "increase":
			err = a.AddIncrease(target, value)
		case "decrease":
			err = a.AddDecrease(target, value)
		default:
			b.fail(key(fmt.Sprintf("effects[%d].kind", j)), "unknown effect kind", ed.Kind)
			continue
		}
		if err != nil {
			b.fail(key(fmt.Sprintf("effects[%d]", j)), err.Error(), ed.Target)
		}
	}
}

func (b *builder) buildDurative(a *model.Action, ad ActionDoc,
	parser *compiler.Parser, key func(string) string) {
	d := ad.Duration
	switch {
	case d.Fixed != nil:
		if err := a.SetFixedDuration(*d.Fixed); err != nil {
			b.fail(key("duration"), err.Error(), *d.Fixed)
		}
	case d.Lower != "" && d.Upper != "":
		lower, err := parser.Parse(d.Lower)
		if err != nil {
			b.fail(key("duration.lower"), err.Error(), d.Lower)
			return
		}
		upper, err := parser.Parse(d.Upper)
		if err != nil {
			b.fail(key("duration.upper"), err.Error(), d.Upper)
			return
		}
		if err := a.SetDuration(lower, upper); err != nil {
			b.fail(key("duration"), err.Error(), nil)
		}
	default:
		b.fail(key("duration"), "needs fixed or lower+upper", nil)
	}

	if len(ad.Preconditions) > 0 {
		b.fail(key("preconditions"), "durative actions use conditions with an 'over' qualifier", nil)
	}
	for j, cd := range ad.Conditions {
		n, err := parser.Parse(cd.Expr)
		if err != nil {
			b.fail(key(fmt.Sprintf("conditions[%d]", j)), err.Error(), cd.Expr)
			continue
		}
		switch cd.Over {
		case "", "start":
			err = a.AddConditionAt(model.StartTiming(), n)
		case "end":
			err = a.AddConditionAt(model.EndTiming(), n)
		case "all":
			err = a.AddCondition(model.ClosedInterval(model.StartTiming(), model.EndTiming()), n)
		default:
			b.fail(key(fmt.Sprintf("conditions[%d].over", j)), "must be start, end or all", cd.Over)
			continue
		}
		if err != nil {
			b.fail(key(fmt.Sprintf("conditions[%d]", j)), err.Error(), cd.Expr)
		}
	}
	for j, ed := range ad.Effects {
		target, value, cond, ok := b.compileEffect(ed, parser, key(fmt.Sprintf("effects[%d]", j)))
		if !ok {
			continue
		}
		if cond != nil {
			b.fail(key(fmt.Sprintf("effects[%d].condition", j)),
				"conditional timed effects are not supported", ed.Condition)
			continue
		}
		timing := model.StartTiming()
		switch ed.When {
		case "", "start":
		case "end":
			timing = model.EndTiming()
		default:
			b.fail(key(fmt.Sprintf("effects[%d].when", j)), "must be start or end", ed.When)
			continue
		}
		var err error
		switch ed.Kind {
		case "", "assign":
			err = a.AddTimedEffect(timing, target, value)
		case "increase":
			err = a.AddTimedIncrease(timing, target, value)
		case "decrease":
			err = a.AddTimedDecrease(timing, target, value)
		default:
			b.fail(key(fmt.Sprintf("effects[%d].kind", j)), "unknown effect kind", ed.Kind)
			continue
		}
		if err != nil {
			b.fail(key(fmt.Sprintf("effects[%d]", j)), err.Error(), ed.Target)
		}
	}
}

func (b *builder) compileEffect(ed EffectDoc, parser *compiler.Parser,
	key string) (target, value, cond *model.Node, ok bool) {
	target, err := parser.Parse(ed.Target)
	if err != nil {
		b.fail(key+".target", err.Error(), ed.Target)
		return nil, nil, nil, false
	}
	value, err = b.literal(ed.Value, parser)
	if err != nil {
		b.fail(key+".value", err.Error(), ed.Value)
		return nil, nil, nil, false
	}
	if ed.Condition != "" {
		cond, err = parser.Parse(ed.Condition)
		if err != nil {
			b.fail(key+".condition", err.Error(), ed.Condition)
			return nil, nil, nil, false
		}
	}
	return target, value, cond, true
}

// literal turns a YAML scalar into a node. Strings are compiled as
// expressions, which also covers bare object names.
func (b *builder) literal(v any, parser *compiler.Parser) (*model.Node, error) {
	f := b.env.Factory()
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("missing value")
	case bool:
		return f.Bool(x), nil
	case int:
		return f.Int(int64(x)), nil
	case int64:
		return f.Int(x), nil
	case float64:
		return f.Real(x), nil
	case string:
		return parser.Parse(x)
	}
	return nil, fmt.Errorf("unsupported literal type %T", v)
}

func (b *builder) addInit() {
	parser := compiler.NewParser(compiler.Scope{Problem: b.p})
	for expr, raw := range b.doc.Init {
		target, err := parser.Parse(expr)
		if err != nil {
			b.fail("init."+expr, err.Error(), nil)
			continue
		}
		value, err := b.literal(raw, parser)
		if err != nil {
			b.fail("init."+expr, err.Error(), raw)
			continue
		}
		if err := b.p.SetInitialValue(target, value); err != nil {
			b.fail("init."+expr, err.Error(), raw)
		}
	}
}

// BuildSequentialPlan resolves a plan document against a problem.
func BuildSequentialPlan(p *model.Problem, doc *PlanDoc) (*model.SequentialPlan, error) {
	var errs []error
	plan := &model.SequentialPlan{Actions: make([]model.ActionInstance, 0, len(doc.Steps))}
	for i, step := range doc.Steps {
		ai, err := resolveStep(p, step)
		if err != nil {
			errs = append(errs, &ValidationError{Key: fmt.Sprintf("steps[%d]", i), Reason: err.Error()})
			continue
		}
		plan.Actions = append(plan.Actions, ai)
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return plan, nil
}

// BuildTimeTriggeredPlan resolves a temporal plan document.
func BuildTimeTriggeredPlan(p *model.Problem, doc *PlanDoc) (*model.TimeTriggeredPlan, error) {
	var errs []error
	plan := &model.TimeTriggeredPlan{Steps: make([]model.TimedActionInstance, 0, len(doc.Steps))}
	for i, step := range doc.Steps {
		ai, err := resolveStep(p, step)
		if err != nil {
			errs = append(errs, &ValidationError{Key: fmt.Sprintf("steps[%d]", i), Reason: err.Error()})
			continue
		}
		plan.Steps = append(plan.Steps, model.TimedActionInstance{
			Start:    step.Start,
			Instance: ai,
			Duration: step.Duration,
		})
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return plan, nil
}

func resolveStep(p *model.Problem, step StepDoc) (model.ActionInstance, error) {
	a, ok := p.Action(step.Action)
	if !ok {
		return model.ActionInstance{}, fmt.Errorf("unknown action %q", step.Action)
	}
	f := p.Environment().Factory()
	params := make([]*model.Node, len(step.Params))
	for i, name := range step.Params {
		obj, ok := p.Object(name)
		if !ok {
			return model.ActionInstance{}, fmt.Errorf("unknown object %q", name)
		}
		exp, err := f.ObjectExp(obj)
		if err != nil {
			return model.ActionInstance{}, err
		}
		params[i] = exp
	}
	return model.ActionInstance{Action: a, Params: params}, nil
}
