// Package services implements the driving ports: retrieval, ingestion,
// crawling and settings. Services depend only on the driven ports, never
// on concrete adapters.
package services
