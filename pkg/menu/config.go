package menu

// Default returns the configured navigation tree. The tree is static; each
// request filters a copy through the caller's permission set. Paths and
// component references match the logistics frontend router.
func Default() []Item {
	return []Item{
		{
			Path:        "/login",
			Component:   "/views/login/index",
			Permissions: []string{"lms.allow_any"},
		},
		{
			Path:        "/404",
			Name:        "404",
			Component:   "/views/404",
			Permissions: []string{"lms.allow_any"},
		},
		{
			Path: "/",
			Name: "首页",
			Children: []Item{
				{
					Path:      "dashboard",
					Name:      "dashboard",
					Component: "/views/dashboard/index",
					Visible: map[string][]string{
						"view_part": {"lms.allow_any"},
						"view_all":  {"generics.view_all_import_record"},
					},
					Permissions: []string{"lms.allow_any"},
				},
			},
		},
		{
			Path: "/LogisticsManagement",
			Name: "LogisticsManagement",
			Children: []Item{
				{
					Path:      "list",
					Name:      "物流匹配规则",
					Component: "/views/logistics/logistics_rule_matching",
					Visible: map[string][]string{
						"add":    {"logistic_rule.add_rule"},
						"change": {"logistic_rule.change_rule"},
						"delete": {"logistic_rule.delete_rule"},
						"edit":   {"logistic_rule.change_rule"},
						"copy":   {"logistic_rule.change_rule"},
						"export": {"logistic_rule.view_rule"},
					},
					Permissions: []string{"logistic_rule.view_rule", "logistic_rule.delete_rule"},
				},
				{
					Path:        "create_rules",
					Name:        "创建规则",
					Component:   "/views/logistics/create_rules",
					Permissions: []string{"logistic_rule.add_rule"},
				},
				{
					Path:        "edit_rules",
					Name:        "修改规则",
					Component:   "/views/logistics/create_rules",
					Permissions: []string{"logistic_rule.change_rule"},
				},
				{
					Path:      "logistics_tracking",
					Name:      "物流跟踪",
					Component: "/views/logistics/logistics_tracking",
					Visible: map[string][]string{
						"view":   {"tracking_info.view_tracking_info"},
						"export": {"tracking_info.view_tracking_info"},
					},
					Permissions: []string{"tracking_info.view_tracking_info"},
				},
				{
					Path:      "return_management",
					Name:      "退货管理",
					Component: "/views/logistics/return_management",
					Visible: map[string][]string{
						"retry":   {"refund_management.change_refundmanagement"},
						"refund":  {"refund_management.change_refundmanagement"},
						"message": {"refund_management.change_refundmanagement"},
						"sign":    {"refund_management.change_refundmanagement"},
						"delete":  {"refund_management.delete_refundmanagement"},
						"import":  {"refund_management.add_refundmanagement", "refund_management.change_refundmanagement"},
						"export":  {"refund_management.view_refundmanagement", "refund_management.view_all_refundmanagement"},
					},
					Permissions: []string{
						"refund_management.add_refundmanagement", "refund_management.change_refundmanagement",
						"refund_management.delete_refundmanagement", "refund_management.view_refundmanagement",
						"refund_management.view_all_refundmanagement",
					},
				},
				{
					Path:      "logistics_reconciliation",
					Name:      "物流对账",
					Component: "/views/logistics/logistic_reconciliation",
					Visible: map[string][]string{
						"view":   {"logistic_reconciliation.view_logistics_reconciliation"},
						"edit":   {"logistic_reconciliation.change_logistics_reconciliation"},
						"export": {"logistic_reconciliation.view_logistics_reconciliation"},
						"import": {"logistic_reconciliation.change_logistics_reconciliation"},
						"delete": {"logistic_reconciliation.delete_logistics_reconciliation"},
						"audit":  {"logistic_reconciliation.change_logistics_reconciliation"},
					},
					Permissions: []string{"logistic_reconciliation.view_logistics_reconciliation"},
				},
			},
		},
		{
			Path: "/BasicConfigurationLogistics",
			Name: "BasicConfigurationLogistics",
			Children: []Item{
				{
					Path:      "billing_logic_configuration",
					Name:      "计费逻辑配置",
					Component: "/views/base_configuration_logistics/billing_logic_configuration",
					Visible: map[string][]string{
						"add":      {"logistic_config.add_chargematch"},
						"edit":     {"logistic_config.change_chargematch"},
						"copy":     {"logistic_config.change_chargematch"},
						"change":   {"logistic_config.change_chargematch"},
						"import":   {"logistic_config.add_chargematch", "logistic_config.change_chargematch"},
						"download": {"logistic_config.add_chargematch", "logistic_config.change_chargematch"},
					},
					Permissions: []string{
						"logistic_config.add_chargematch", "logistic_config.change_chargematch",
						"logistic_config.view_chargematch",
					},
				},
				{
					Path:      "shipping_address",
					Name:      "发件地址管理",
					Component: "/views/base_configuration_logistics/shipping_address",
					Visible: map[string][]string{
						"add":    {"logistic_config.add_shipping_address"},
						"edit":   {"logistic_config.change_shipping_address"},
						"delete": {"logistic_config.delete_shipping_address"},
						"copy":   {"logistic_config.add_shipping_address"},
					},
					Permissions: []string{
						"logistic_config.view_shipping_address", "logistic_config.add_shipping_address",
						"logistic_config.change_shipping_address", "logistic_config.delete_shipping_address",
					},
				},
				{
					Path:      "logistics_authority_configuration",
					Name:      "物流权限配置",
					Component: "/views/base_configuration_logistics/logistics_authority_configuration",
					Visible: map[string][]string{
						"add":              {"auth.add_role"},
						"delete":           {"auth.delete_role"},
						"user_role_deploy": {"auth.change_user"},
						"user_auth":        {"auth.change_user"},
						"role_auth":        {"auth.change_role"},
					},
					Permissions: []string{
						"auth.add_role", "auth.change_role", "auth.delete_role", "auth.change_user",
					},
				},
			},
		},
		{
			Path: "/OrderManage",
			Name: "订单管理",
			Children: []Item{
				{
					Path:      "order_management",
					Name:      "订单列表",
					Component: "/views/logistics/order_management",
					Visible: map[string][]string{
						"generate_waybill": {"shipment.change_shipment"},
						"edit":             {"shipment.change_shipment"},
						"view":             {"shipment.view_shipment"},
						"print":            {"shipment.view_shipment"},
						"import":           {"shipment.change_shipment"},
						"export":           {"shipment.view_shipment"},
					},
					Permissions: []string{
						"shipment.add_shipment", "shipment.change_shipment",
						"shipment.delete_shipment", "shipment.view_shipment",
					},
				},
				{
					Path:        "order_detail",
					Name:        "订单详情",
					Component:   "/views/logistics/order_detail",
					Permissions: []string{"shipment.view_shipment"},
				},
			},
		},
	}
}
