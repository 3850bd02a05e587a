// Package docs provides Swagger documentation for the contract billing API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Life Insurance Billing API",
        "description": "Contract billing and dunning backend for a life insurance brokerage.\n\nWorkflow:\n1. **Insurances** - Browse the product catalog with prices, coverages and benefits\n2. **Contracts** - Create a draft, activate it (pricing + payment schedule), confirm with signature and payment method\n3. **Transactions** - Amortized installments generated at activation, settled by the dunning engine\n4. **Dunning** - Periodic retry-and-deactivate passes over due installments",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/christopherpaucar/life-insurance-back-sub000"
        },
        "license": {
            "name": "MIT"
        },
        "version": "1.0.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/insurances": {
            "get": {
                "tags": ["Insurances"],
                "summary": "List catalog products",
                "operationId": "listInsurances",
                "responses": {
                    "200": {
                        "description": "Successful response",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/Insurance"}
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/insurances/{slug}": {
            "get": {
                "tags": ["Insurances"],
                "summary": "Get a product by slug",
                "operationId": "getInsuranceBySlug",
                "parameters": [
                    {"name": "slug", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {
                        "description": "Successful response",
                        "schema": {"$ref": "#/definitions/Insurance"}
                    },
                    "404": {
                        "description": "Product not found",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/contracts": {
            "post": {
                "tags": ["Contracts"],
                "summary": "Create a draft contract",
                "operationId": "createContract",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContractInput"}}
                ],
                "responses": {
                    "201": {
                        "description": "Draft created",
                        "schema": {"$ref": "#/definitions/Contract"}
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    },
                    "404": {
                        "description": "Insurance not found",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            },
            "get": {
                "tags": ["Contracts"],
                "summary": "List contracts",
                "operationId": "listContracts",
                "parameters": [
                    {"name": "client_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer", "default": 20},
                    {"name": "offset", "in": "query", "type": "integer", "default": 0}
                ],
                "responses": {
                    "200": {
                        "description": "Paginated contracts",
                        "schema": {"$ref": "#/definitions/ContractList"}
                    }
                }
            }
        },
        "/contracts/{contract_id}": {
            "get": {
                "tags": ["Contracts"],
                "summary": "Get a contract with its payment schedule",
                "operationId": "getContract",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {
                        "description": "Contract with transactions",
                        "schema": {"$ref": "#/definitions/ContractWithTransactions"}
                    },
                    "404": {
                        "description": "Contract not found",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            },
            "patch": {
                "tags": ["Contracts"],
                "summary": "Edit a non-active contract",
                "description": "Frequency or date changes on a priced contract re-price it and regenerate the schedule. Active and terminal contracts reject edits.",
                "operationId": "patchContract",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContractPatch"}}
                ],
                "responses": {
                    "200": {
                        "description": "Updated contract",
                        "schema": {"$ref": "#/definitions/Contract"}
                    },
                    "409": {
                        "description": "Contract is active or terminal",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            },
            "delete": {
                "tags": ["Contracts"],
                "summary": "Remove a draft contract",
                "description": "Soft-deletes the contract and removes its payment schedule. Only drafts can be removed.",
                "operationId": "deleteContract",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {
                        "description": "Not a draft",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/contracts/{contract_id}:activate": {
            "post": {
                "tags": ["Contracts"],
                "summary": "Price the contract and generate its schedule",
                "description": "Computes the total from the product price plus coverage/benefit add-ons for the contract frequency and period, generates the amortized installment schedule, and moves the contract to awaiting_client_confirmation.",
                "operationId": "activateContract",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {
                        "description": "Priced contract awaiting confirmation",
                        "schema": {"$ref": "#/definitions/Contract"}
                    },
                    "404": {
                        "description": "Contract or frequency price not found",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    },
                    "409": {
                        "description": "Status does not allow activation",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/contracts/{contract_id}:confirm": {
            "post": {
                "tags": ["Contracts"],
                "summary": "Confirm activation with signature and payment method",
                "operationId": "confirmContract",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmationInput"}}
                ],
                "responses": {
                    "200": {
                        "description": "Active contract",
                        "schema": {"$ref": "#/definitions/Contract"}
                    },
                    "409": {
                        "description": "Contract is not awaiting confirmation",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    },
                    "502": {
                        "description": "Signature provider failure",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/contracts/{contract_id}:status": {
            "post": {
                "tags": ["Contracts"],
                "summary": "Apply an explicit status transition",
                "description": "Moving to active is only permitted from awaiting_client_confirmation; all other transitions follow the lifecycle state machine.",
                "operationId": "changeContractStatus",
                "parameters": [
                    {"name": "contract_id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusChange"}}
                ],
                "responses": {
                    "200": {
                        "description": "Contract in its new status",
                        "schema": {"$ref": "#/definitions/Contract"}
                    },
                    "409": {
                        "description": "Transition not allowed",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        },
        "/dunning:run": {
            "post": {
                "tags": ["Dunning"],
                "summary": "Run one dunning pass now",
                "description": "Charges every due installment, schedules retries for declined ones and deactivates contracts whose installments exhausted their retries. Requires the back-office API key.",
                "operationId": "runDunning",
                "parameters": [
                    {"name": "as_of", "in": "query", "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {
                        "description": "Pass report",
                        "schema": {"$ref": "#/definitions/DunningReport"}
                    },
                    "409": {
                        "description": "A pass is already running",
                        "schema": {"$ref": "#/definitions/ProblemDetails"}
                    }
                }
            }
        }
    },
    "definitions": {
        "Insurance": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "slug": {"type": "string", "example": "life-basic"},
                "name": {"type": "string", "example": "Basic Life"},
                "description": {"type": "string"},
                "prices": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/InsurancePrice"}
                },
                "coverages": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CoverageRelation"}
                },
                "benefits": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BenefitRelation"}
                }
            }
        },
        "InsurancePrice": {
            "type": "object",
            "properties": {
                "frequency": {"type": "string", "enum": ["monthly", "quarterly", "yearly"]},
                "price": {"type": "string", "example": "100.00"}
            }
        },
        "CoverageRelation": {
            "type": "object",
            "properties": {
                "coverage_id": {"type": "string"},
                "name": {"type": "string"},
                "additional_cost": {"type": "string", "example": "10.00"}
            }
        },
        "BenefitRelation": {
            "type": "object",
            "properties": {
                "benefit_id": {"type": "string"},
                "name": {"type": "string"},
                "additional_cost": {"type": "string", "example": "5.50"}
            }
        },
        "ContractInput": {
            "type": "object",
            "required": ["client_id", "insurance_id", "frequency", "start_date", "end_date"],
            "properties": {
                "client_id": {"type": "string"},
                "insurance_id": {"type": "string"},
                "frequency": {"type": "string", "enum": ["monthly", "quarterly", "yearly"]},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "beneficiaries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Beneficiary"}
                }
            }
        },
        "ContractPatch": {
            "type": "object",
            "properties": {
                "frequency": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "beneficiaries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Beneficiary"}
                }
            }
        },
        "ConfirmationInput": {
            "type": "object",
            "required": ["signed_document", "payment_method"],
            "properties": {
                "signed_document": {"type": "string", "description": "Base64-encoded signed agreement"},
                "payment_method": {"$ref": "#/definitions/PaymentMethodInput"}
            }
        },
        "PaymentMethodInput": {
            "type": "object",
            "required": ["holder", "token"],
            "properties": {
                "holder": {"type": "string"},
                "masked_pan": {"type": "string", "example": "****1234"},
                "token": {"type": "string"}
            }
        },
        "StatusChange": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "example": "cancelled"}
            }
        },
        "Beneficiary": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "relation": {"type": "string"},
                "percentage": {"type": "string", "example": "50"}
            }
        },
        "Contract": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "number": {"type": "string", "example": "CT-2026-000001"},
                "client_id": {"type": "string"},
                "insurance_id": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "pending_basic_documents", "awaiting_client_confirmation", "active", "expired", "cancelled", "inactive"]},
                "frequency": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "total_amount": {"type": "string", "example": "1320.00"},
                "installment_amount": {"type": "string", "example": "330.00"},
                "signature_ref": {"type": "string"},
                "payment_method_id": {"type": "string"},
                "beneficiaries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Beneficiary"}
                },
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "ContractWithTransactions": {
            "allOf": [
                {"$ref": "#/definitions/Contract"},
                {
                    "type": "object",
                    "properties": {
                        "transactions": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/Transaction"}
                        }
                    }
                }
            ]
        },
        "ContractList": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Contract"}
                },
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contract_id": {"type": "string"},
                "amount": {"type": "string", "example": "330.00"},
                "status": {"type": "string", "enum": ["pending", "success", "failed", "in_retry"]},
                "retry_count": {"type": "integer"},
                "next_payment_date": {"type": "string", "format": "date-time"},
                "next_retry_payment_date": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "DunningReport": {
            "type": "object",
            "properties": {
                "selected": {"type": "integer"},
                "settled": {"type": "integer"},
                "retried": {"type": "integer"},
                "exhausted": {"type": "integer"},
                "faulted": {"type": "integer"},
                "as_of": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"}
            }
        },
        "ProblemDetails": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "example": "about:blank"},
                "title": {"type": "string", "example": "Not Found"},
                "status": {"type": "integer", "example": 404},
                "code": {"type": "string", "example": "NOT_FOUND"},
                "detail": {"type": "string", "example": "Contract not found"}
            }
        }
    },
    "tags": [
        {"name": "Insurances", "description": "Product catalog with prices, coverages and benefits"},
        {"name": "Contracts", "description": "Contract lifecycle, pricing and schedules"},
        {"name": "Dunning", "description": "Installment settlement and retries"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Life Insurance Billing API",
	Description:      "Contract billing and dunning backend for a life insurance brokerage",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
