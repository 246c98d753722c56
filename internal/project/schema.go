package project

// schemaJSON describes the parts of a project file the loader relies on.
// Unknown fields are allowed so files written by newer versions still load.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["data", "columns"],
  "definitions": {
    "range": {
      "type": ["array", "null"],
      "items": {"type": "number"},
      "minItems": 2,
      "maxItems": 2
    },
    "groupSettings": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "object",
        "properties": {
          "mode": {"enum": ["auto", "manual"]},
          "unmatched": {"enum": ["drop", "ungrouped"]},
          "bins": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["operator", "value"],
              "properties": {
                "label": {"type": "string"},
                "operator": {"enum": [">", "<", ">=", "<=", "==", "!="]},
                "value": {"type": "number"}
              }
            }
          }
        }
      }
    },
    "axisMenu": {
      "type": "object",
      "properties": {
        "xAxis": {"type": "string"},
        "yAxis": {"type": "array", "items": {"type": "string"}},
        "plotType": {"enum": ["scatter", "histogram"]},
        "groupAxis": {"type": ["string", "null"]},
        "groupSettings": {"$ref": "#/definitions/groupSettings"}
      }
    },
    "layout": {
      "type": "object",
      "properties": {
        "enableLogAxis": {"type": "boolean"},
        "plotTitle": {"type": "string"},
        "xAxisTitle": {"type": "string"},
        "yAxisTitle": {"type": "string"},
        "xRange": {"$ref": "#/definitions/range"},
        "yRange": {"$ref": "#/definitions/range"},
        "histogramBarmode": {"enum": ["overlay", "stack", "group", ""]}
      }
    },
    "mapping": {
      "type": "object",
      "required": ["source"],
      "properties": {
        "source": {"enum": ["manual", "group", "column"]},
        "value": {"type": ["string", "number"]}
      }
    }
  },
  "properties": {
    "data": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
      }
    },
    "columns": {"type": "array", "items": {"type": "string"}},
    "sideMenuData": {"$ref": "#/definitions/axisMenu"},
    "groupSideMenuData": {
      "type": "object",
      "properties": {
        "groupAxis": {"type": ["string", "null"]},
        "groupSettings": {"$ref": "#/definitions/groupSettings"}
      }
    },
    "plotLayout": {"$ref": "#/definitions/layout"},
    "plotArea": {
      "allOf": [
        {"$ref": "#/definitions/layout"},
        {"properties": {"axisMenuData": {"$ref": "#/definitions/axisMenu"}}}
      ]
    },
    "filters": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "column", "type"],
        "properties": {
          "id": {"type": "string"},
          "column": {"type": "string"},
          "type": {"enum": ["number", "category"]},
          "config": {
            "type": "object",
            "properties": {
              "min": {"type": ["number", "null"]},
              "max": {"type": ["number", "null"]},
              "includedValues": {"type": ["array", "null"], "items": {"type": "string"}}
            }
          }
        }
      }
    },
    "traceConfig": {
      "type": "object",
      "properties": {
        "traceCustomizations": {"type": ["object", "null"]},
        "colorPalette": {"type": "string"},
        "currentPaletteColors": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "colorData": {
      "type": "object",
      "properties": {
        "hue": {"$ref": "#/definitions/mapping"},
        "saturation": {"$ref": "#/definitions/mapping"},
        "lightness": {"$ref": "#/definitions/mapping"},
        "shape": {"$ref": "#/definitions/mapping"}
      }
    },
    "inkRatio": {
      "type": "object",
      "properties": {
        "inkRatio": {"type": "number", "minimum": 0, "maximum": 1},
        "absorptionMode": {"enum": ["none", "size", "glow"]}
      }
    }
  }
}`
