package relationship

// DefaultMapping returns the production rule table mapping Star Access
// employee relationships onto logistics roles. Values are the upstream
// system's Chinese department, role, level and position names; they must
// match exactly.
//
// A fresh copy is returned each call so callers cannot mutate the table.
func DefaultMapping() Mapping {
	return Mapping{
		// Everyone, including users Star Access does not know about.
		"system:user": {
			{},
		},
		"logistic:user": {
			{"departments": {"物流部"}},
		},
		"system:director": {
			{"levels": {"副总监", "总监", "总经理"}},
		},
		"seller:member": {
			{"roles": {"运营"}, "levels": {"专员", "助理"}},
		},
		"seller:leader": {
			{"roles": {"运营"}, "levels": {"组长"}},
		},
		"seller:head": {
			{"roles": {"运营"}, "levels": {"副主管", "主管"}},
		},
		"seller:manager": {
			{"roles": {"运营"}, "levels": {"副经理", "经理"}},
		},
		"service:member": {
			{"roles": {"客服"}, "levels": {"专员", "助理"}},
			{"positions": {"客服专员"}},
		},
		"service:leader": {
			{"roles": {"客服"}, "levels": {"组长"}},
			{"positions": {"客服组长"}},
		},
		"service:head": {
			{"roles": {"客服"}, "levels": {"副主管", "主管"}},
			{"positions": {"客服副主管", "客服主管"}},
		},
		"service:manager": {
			{"roles": {"客服"}, "levels": {"副经理", "经理"}},
		},
		"warehouse:member": {
			{"departments": {"仓储部"}, "levels": {"专员", "助理"}},
		},
		"warehouse:leader": {
			{"departments": {"仓储部"}, "levels": {"组长"}},
		},
		"warehouse:head": {
			{"departments": {"仓储部"}, "levels": {"副主管", "主管"}},
		},
		"warehouse:manager": {
			{"departments": {"仓储部", "供应链管理中心"}, "levels": {"副经理", "经理"}},
		},
		// Logistics currently grants member only, by role or department.
		"logistic:member": {
			{"roles": {"物流"}},
			{"departments": {"物流一部", "物流二部"}},
		},
		"finance:member": {
			{"departments": {"财务部"}, "levels": {"专员", "助理"}},
		},
		"finance:leader": {
			{"departments": {"财务部"}, "levels": {"组长"}},
		},
		"finance:head": {
			{"departments": {"财务部"}, "levels": {"副主管", "主管"}},
		},
		"finance:manager": {
			{"departments": {"财务部"}, "levels": {"副经理", "经理"}},
		},
		"develop:user": {
			{"departments": {"研发与流程管理部"}},
		},
	}
}
