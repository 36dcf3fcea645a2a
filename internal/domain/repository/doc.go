// Package repository define el modelo de identidad y el contrato del credential store.
//
// Los drivers (store/pg, store/memory) implementan IdentityRepository y traducen
// sus errores nativos a los sentinels de este paquete.
package repository
