// Package models holds the gorm row types behind the repositories. Domain
// types carry no gorm tags; each model converts with ToDomain/FromDomain.
//
// Nested values (workflow step log, order payload, forwarder warehouses) are
// stored as jsonb documents rather than child tables: they are always read
// and written together with their parent row.
package models
