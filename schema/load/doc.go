// Package load reads model schemas from YAML documents and decodes JSON
// objects into records of the loaded models.
//
// A schema document lists models and their properties. Property types name
// either a primitive model (string, int, int64, float64, bool, time, bytes)
// or another model of the document; a list of names makes the property
// polymorphic:
//
//	models:
//	  - name: Account
//	    keys: [id]
//	    properties:
//	      - name: id
//	        type: int64
//	      - name: payment
//	        type: [Card, Wallet]
//	        private: true
//	        mapping:
//	          - modelTable: {}
//	          - propertyTable: {mappedBy: owner}
package load
