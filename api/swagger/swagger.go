package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Finance API",
        "description": "Tuition billing, delinquency tracking and financial dashboards",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Enrollments", "description": "Yearly enrollments and installment plans"},
        {"name": "Installments", "description": "Monthly tuition installments"},
        {"name": "Delinquency", "description": "Students with overdue installments"},
        {"name": "Dashboard", "description": "Financial dashboards"},
        {"name": "Expenses", "description": "Expense ledger"},
        {"name": "Payroll", "description": "Payroll ledger"}
    ],
    "paths": {
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "schoolYear", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["ACTIVE", "CANCELED", "COMPLETED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student and generate installments",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active enrollment already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/cancel": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Cancel enrollment and its pending installments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already canceled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List a student's enrollments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/installments": {
            "get": {
                "tags": ["Installments"],
                "summary": "List installments",
                "parameters": [
                    {"name": "enrollmentId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "PAID", "OVERDUE", "CANCELED"]},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/installments/{id}": {
            "get": {
                "tags": ["Installments"],
                "summary": "Get installment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/installments/{id}/payments": {
            "post": {
                "tags": ["Installments"],
                "summary": "Register a payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Installment already paid or canceled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/installments/{id}/late-fee": {
            "post": {
                "tags": ["Installments"],
                "summary": "Apply late fee and interest",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyLateFeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/installments/overdue-sweep": {
            "post": {
                "tags": ["Installments"],
                "summary": "Mark past-due pending installments as overdue",
                "parameters": [{"name": "asOf", "in": "query", "type": "string", "format": "date"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/delinquents": {
            "get": {
                "tags": ["Delinquency"],
                "summary": "List delinquent students",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/delinquents/export": {
            "get": {
                "tags": ["Delinquency"],
                "summary": "Export delinquent students as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/finance/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Monthly financial dashboard",
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/finance/history": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Month-by-month history for a year",
                "parameters": [{"name": "year", "in": "query", "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/finance/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Year totals",
                "parameters": [{"name": "year", "in": "query", "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/finance/overview": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Headline metrics with a six month trend",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expenses": {
            "get": {
                "tags": ["Expenses"],
                "summary": "List expenses",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Expenses"],
                "summary": "Record an expense",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExpenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expenses/{id}/pay": {
            "post": {
                "tags": ["Expenses"],
                "summary": "Pay an expense",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PayLedgerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expenses/{id}/cancel": {
            "post": {
                "tags": ["Expenses"],
                "summary": "Cancel an expense",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll": {
            "get": {
                "tags": ["Payroll"],
                "summary": "List payroll payments",
                "parameters": [
                    {"name": "staffId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Payroll"],
                "summary": "Create a payroll payment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePayrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payroll already exists for the month", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/generate": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Generate payroll for every active teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePayrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/{id}/pay": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Pay a payroll payment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payroll/{id}/cancel": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Cancel a payroll payment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "plan_id": {"type": "string"},
                "school_year": {"type": "integer"},
                "base_tuition": {"type": "string", "example": "450.00"},
                "discount": {"type": "string", "example": "0"},
                "matriculation_fee": {"type": "string", "example": "0"},
                "due_day": {"type": "integer", "example": 10}
            },
            "required": ["student_id", "plan_id", "school_year", "base_tuition"]
        },
        "Adjustment": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["PERCENT", "FLAT"]},
                "value": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["type", "value", "reason"]
        },
        "RegisterPaymentRequest": {
            "type": "object",
            "properties": {
                "paid_amount": {"type": "string"},
                "method": {"type": "string", "enum": ["CASH", "PIX", "CREDIT_CARD", "DEBIT_CARD", "BANK_TRANSFER", "BANK_SLIP"]},
                "payment_date": {"type": "string", "format": "date-time"},
                "discount": {"$ref": "#/definitions/Adjustment"},
                "surcharge": {"$ref": "#/definitions/Adjustment"},
                "notes": {"type": "string"}
            },
            "required": ["method"]
        },
        "ApplyLateFeeRequest": {
            "type": "object",
            "properties": {
                "late_fee": {"type": "string"},
                "interest": {"type": "string"}
            }
        },
        "CreateExpenseRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "category": {"type": "string"},
                "amount": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"}
            },
            "required": ["description", "category", "amount", "due_date"]
        },
        "PayLedgerRequest": {
            "type": "object",
            "properties": {
                "method": {"type": "string"},
                "payment_date": {"type": "string", "format": "date-time"}
            },
            "required": ["method"]
        },
        "CreatePayrollRequest": {
            "type": "object",
            "properties": {
                "staff_id": {"type": "string"},
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "gross_amount": {"type": "string"},
                "deductions": {"type": "string"},
                "due_day": {"type": "integer"},
                "notes": {"type": "string"}
            },
            "required": ["staff_id", "month", "year", "gross_amount"]
        },
        "GeneratePayrollRequest": {
            "type": "object",
            "properties": {
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "due_day": {"type": "integer"}
            },
            "required": ["month", "year"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
